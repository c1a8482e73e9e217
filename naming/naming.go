// Package naming renders output file names from templates such as
// "{OBJECT}_{MOLECULE}_MomZero_rp.fits" or "{stem}_{RESTFRQ:%0.3e}.fits".
//
// A token is either a FITS keyword of the input header, optionally followed
// by a printf-style format or a date layout ("{DATE-OBS:date2006-01-02}"), or
// one of the variables supplied by the caller, such as {stem}.
package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickbassham/fitsderotate/common"
)

var aliases = map[string][]string{
	"OBJECT":   {"OBJNAME"},
	"MOLECULE": {"LINE", "SPECIES"},
	"EXPTIME":  {"EXPOSURE", "INT_TIME"},
}

type token struct {
	raw    bool
	header string
	format string
}

// Template is a parsed file name template.
type Template struct {
	source  string
	tokens  []token
	NoSpace bool
}

func Parse(s string) *Template {
	return &Template{source: s, tokens: scanForTokens(s)}
}

func (t *Template) String() string {
	return t.source
}

// Render expands the template. vars take precedence over header keywords.
// A keyword missing from both fails with a configuration error.
func (t *Template) Render(hdr common.Header, vars map[string]string) (string, error) {
	var result strings.Builder

	for _, tok := range t.tokens {
		item, err := tok.convert(hdr, vars)
		if err != nil {
			return "", err
		}
		if t.NoSpace && !tok.raw {
			item = strings.ReplaceAll(item, " ", "_")
		}
		result.WriteString(item)
	}

	return result.String(), nil
}

func (t token) convert(hdr common.Header, vars map[string]string) (string, error) {
	if t.raw {
		return t.header, nil
	}

	if v, ok := vars[t.header]; ok {
		return v, nil
	}

	val, ok := hdr[t.header]
	if !ok || val == nil || val == "" {
		for _, a := range aliases[t.header] {
			if v, ok := hdr[a]; ok && v != nil && v != "" {
				val = v
				break
			}
		}
	}

	if val == nil || val == "" {
		return "", common.MissingKeyword(t.header)
	}

	switch val := val.(type) {
	case string:
		if strings.HasPrefix(t.format, "date") {
			parsed, err := time.ParseInLocation("2006-01-02T15:04:05.999999999Z", val, time.UTC)
			if err != nil {
				parsed, err = time.ParseInLocation("2006-01-02T15:04:05.999999999", val, time.UTC)
				if err != nil {
					return "", common.InvalidKeyword(t.header, fmt.Sprintf("unable to parse %s as a timestamp", val))
				}
			}

			if t.format == "dateunix" {
				return fmt.Sprintf("%d", parsed.Unix()), nil
			}

			return parsed.Format(t.format[4:]), nil
		}

		return sanitize(strings.TrimSpace(val)), nil

	case bool:
		if t.format == "" {
			return fmt.Sprintf("%t", val), nil
		}
		return fmt.Sprintf(t.format, val), nil

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if t.format == "" {
			return fmt.Sprintf("%d", val), nil
		}

		if strings.Contains(t.format, "f") || strings.Contains(t.format, "e") {
			f, _ := hdr.Float(t.header)
			return fmt.Sprintf(t.format, f), nil
		}

		return fmt.Sprintf(t.format, val), nil

	case float32, float64:
		f, _ := hdr.Float(t.header)
		if t.format == "" {
			return fmt.Sprintf("%g", f), nil
		}

		if strings.HasSuffix(t.format, "d") {
			return fmt.Sprintf(t.format, int64(f)), nil
		}

		return fmt.Sprintf(t.format, f), nil
	}

	return "", common.InvalidKeyword(t.header, fmt.Sprintf("unknown type %T", val))
}

func scanForTokens(data string) []token {
	var tokens []token

	for i := 0; i < len(data); i++ {
		nextTokenStart := strings.Index(data[i:], "{")
		nextTokenEnd := strings.Index(data[i:], "}")

		if nextTokenStart == 0 && nextTokenEnd > 0 {
			// inside a {} token; look for a format specifier
			formatIndex := strings.Index(data[i:i+nextTokenEnd], ":")
			if formatIndex > 0 {
				tokens = append(tokens, token{
					header: data[i+1 : i+formatIndex],
					format: data[i+formatIndex+1 : i+nextTokenEnd],
				})
			} else {
				tokens = append(tokens, token{header: data[i+1 : i+nextTokenEnd]})
			}
			i += nextTokenEnd
		} else if nextTokenStart > 0 {
			tokens = append(tokens, token{raw: true, header: data[i : i+nextTokenStart]})
			i += nextTokenStart - 1
		} else {
			tokens = append(tokens, token{raw: true, header: data[i:]})
			break
		}
	}

	return tokens
}

// sanitize keeps header values from introducing directories.
func sanitize(s string) string {
	return strings.NewReplacer("/", "-", "\\", "-").Replace(s)
}
