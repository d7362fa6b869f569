package curator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cesargomez89/plexsage/internal/domain"
)

var (
	ErrEmptyResponse     = errors.New("model returned an empty response")
	ErrMalformedResponse = errors.New("model returned an invalid selection format")
)

// ExtractionShape records how the selection list was found in the payload.
type ExtractionShape string

const (
	ShapeArray   ExtractionShape = "array"
	ShapeWrapped ExtractionShape = "wrapped"
	ShapeSingle  ExtractionShape = "single"
)

// Extraction is the normalized result of parsing a model response.
type Extraction struct {
	Shape      ExtractionShape
	WrapperKey string
	Selections []domain.Selection
	// Skipped counts items that lacked an artist or a title.
	Skipped int
}

// Keys that may wrap the selection array, checked in order.
var wrapperKeys = []string{"tracks", "selections", "playlist", "songs"}

// Field aliases, first present non-empty value wins.
var (
	artistKeys = []string{"artist", "artist_name", "performer"}
	titleKeys  = []string{"title", "track", "song", "name"}
	albumKeys  = []string{"album", "album_name", "record"}
	reasonKeys = []string{"reason", "why", "explanation"}
)

var (
	jsonFence = regexp.MustCompile("(?is)```json\\s*\\n?(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```(?:\\w+)?\\s*\\n?(.*?)```")
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// ExtractSelections parses model output into selections. It tolerates code
// fences, smart quotes, prose around the JSON and a wrapping object.
func ExtractSelections(content string) (Extraction, error) {
	raw, err := payloadJSON(content)
	if err != nil {
		return Extraction{}, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var (
		ext   Extraction
		items []any
	)
	switch v := payload.(type) {
	case []any:
		ext.Shape = ShapeArray
		items = v
	case map[string]any:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]any); ok {
				ext.Shape = ShapeWrapped
				ext.WrapperKey = key
				items = arr
				break
			}
		}
		if ext.Shape == "" {
			if firstString(v, artistKeys) == "" {
				return Extraction{}, fmt.Errorf("%w: object without a track list", ErrMalformedResponse)
			}
			ext.Shape = ShapeSingle
			items = []any{v}
		}
	default:
		return Extraction{}, fmt.Errorf("%w: unexpected %T", ErrMalformedResponse, payload)
	}

	ext.Selections = make([]domain.Selection, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			ext.Skipped++
			continue
		}
		sel := domain.Selection{
			Artist: firstString(obj, artistKeys),
			Title:  firstString(obj, titleKeys),
			Album:  firstString(obj, albumKeys),
			Reason: firstString(obj, reasonKeys),
		}
		if sel.Artist == "" || sel.Title == "" {
			ext.Skipped++
			continue
		}
		ext.Selections = append(ext.Selections, sel)
	}
	return ext, nil
}

// payloadJSON strips fences and smart quotes from model output and returns
// the JSON document inside it.
func payloadJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	if m := jsonFence.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	} else if m := anyFence.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}
	content = quoteReplacer.Replace(content)

	var raw json.RawMessage
	err := json.Unmarshal([]byte(content), &raw)
	if err == nil {
		return raw, nil
	}
	bounded := jsonBounds(content)
	if bounded == "" {
		return nil, fmt.Errorf("%w: %v (payload: %s)", ErrMalformedResponse, err, snippet(content))
	}
	if err := json.Unmarshal([]byte(bounded), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v (payload: %s)", ErrMalformedResponse, err, snippet(bounded))
	}
	return raw, nil
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// jsonBounds returns the first balanced JSON array or object in s, ignoring
// brackets inside strings. It returns "" when none is closed.
func jsonBounds(s string) string {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 160
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
