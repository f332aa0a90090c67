package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadLegacy reads an options file made of "#key: value" lines. Reading
// stops at the first line that does not start with '#'; anything after
// the value on a line is ignored.
func LoadLegacy(path string) (*Config, []Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseLegacy(f)
}

func ParseLegacy(r io.Reader) (*Config, []Warning, error) {
	cfg := DefaultConfig()
	fields := cfg.fields()
	var warnings []Warning

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if !strings.HasPrefix(text, "#") {
			break
		}

		parts := strings.Fields(text)
		key := strings.TrimSuffix(strings.TrimPrefix(parts[0], "#"), ":")
		ptr, ok := fields[key]
		if !ok {
			warnings = append(warnings, Warning{Line: line, Key: key, Reason: "unknown key"})
			continue
		}
		if len(parts) < 2 {
			warnings = append(warnings, Warning{Line: line, Key: key, Reason: "missing value"})
			continue
		}
		if err := decodeScalar(parts[1], ptr); err != nil {
			warnings = append(warnings, Warning{Line: line, Key: key, Reason: fmt.Sprintf("malformed value %q", parts[1])})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, warnings, fmt.Errorf("config: %w", err)
	}
	return cfg, warnings, nil
}

// decodeScalar sets ptr from a single token. Booleans also accept 0 and 1.
func decodeScalar(s string, ptr any) error {
	if b, ok := ptr.(*bool); ok {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*b = v
		return nil
	}
	if sp, ok := ptr.(*string); ok {
		*sp = s
		return nil
	}
	return yaml.Unmarshal([]byte(s), ptr)
}

// WriteLegacy writes c as a "#key: value" options file in key order.
func WriteLegacy(w io.Writer, c *Config) error {
	var buf bytes.Buffer
	fields := c.fields()
	for _, k := range Keys() {
		switch v := fields[k].(type) {
		case *string:
			if *v == "" {
				continue
			}
			fmt.Fprintf(&buf, "#%s: %s\n", k, *v)
		case *bool:
			fmt.Fprintf(&buf, "#%s: %s\n", k, strconv.FormatBool(*v))
		case *int:
			fmt.Fprintf(&buf, "#%s: %d\n", k, *v)
		case *int64:
			fmt.Fprintf(&buf, "#%s: %d\n", k, *v)
		case *float64:
			fmt.Fprintf(&buf, "#%s: %s\n", k, strconv.FormatFloat(*v, 'g', -1, 64))
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
