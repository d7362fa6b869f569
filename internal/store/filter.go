package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
)

var entryColumns = []string{
	"id", "title", "artist", "album", "duration_ms", "year", "genres", "user_rating", "is_live",
}

// filterPredicates turns the SQL-expressible part of a FilterSpec into a
// WHERE clause. Genres are matched after the query.
func filterPredicates(spec domain.FilterSpec) (sq.And, error) {
	where := sq.And{}

	if spec.ExcludeLive {
		where = append(where, sq.Eq{"is_live": 0})
	}

	if spec.MinRating > 0 {
		where = append(where, sq.GtOrEq{"user_rating": spec.MinRating})
	}

	if len(spec.Decades) > 0 {
		decades := sq.Or{}
		for _, label := range spec.Decades {
			r, err := domain.ParseDecade(label)
			if err != nil {
				return nil, err
			}
			decades = append(decades, sq.And{
				sq.GtOrEq{"year": r.Start},
				sq.LtOrEq{"year": r.End},
			})
		}
		where = append(where, decades)
	}

	return where, nil
}

// selectEntries builds the entry query. Sampling is pushed into SQL only when
// no genre post-filter will run afterwards.
func selectEntries(spec domain.FilterSpec) (string, []interface{}, error) {
	where, err := filterPredicates(spec)
	if err != nil {
		return "", nil, err
	}

	q := sq.Select(entryColumns...).From(constants.EntriesTable)
	if len(where) > 0 {
		q = q.Where(where)
	}
	if spec.Limit > 0 && len(spec.Genres) == 0 {
		q = q.OrderBy("RANDOM()").Limit(uint64(spec.Limit))
	}
	return q.ToSql()
}

func selectEntry(id string) (string, []interface{}, error) {
	return sq.Select(entryColumns...).From(constants.EntriesTable).Where(sq.Eq{"id": id}).ToSql()
}

func countEntries(spec domain.FilterSpec) (string, []interface{}, error) {
	where, err := filterPredicates(spec)
	if err != nil {
		return "", nil, err
	}

	q := sq.Select("COUNT(*)").From(constants.EntriesTable)
	if len(where) > 0 {
		q = q.Where(where)
	}
	return q.ToSql()
}

// selectGenres fetches only the genre column of rows passing the SQL predicates.
func selectGenres(spec domain.FilterSpec) (string, []interface{}, error) {
	where, err := filterPredicates(spec)
	if err != nil {
		return "", nil, err
	}

	q := sq.Select("genres").From(constants.EntriesTable)
	if len(where) > 0 {
		q = q.Where(where)
	}
	return q.ToSql()
}
