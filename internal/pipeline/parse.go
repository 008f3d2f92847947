package pipeline

import (
	"strings"

	"github.com/sells-group/docintake/internal/model"
)

const (
	fieldSep  = ": "
	noneValue = "None"
)

// ParseFieldReply reads "key: value" lines. Lines without ": " are ignored.
// Keys are lowercased and trimmed; a value of None records the key with no
// value. employee_names is split into a list of names.
func ParseFieldReply(reply string) model.FieldRecord {
	rec := model.NewFieldRecord()

	reply = strings.ReplaceAll(strings.TrimSpace(reply), "\r\n", "\n")
	for _, line := range strings.Split(reply, "\n") {
		name, value, ok := strings.Cut(line, fieldSep)
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)

		if key == model.FieldEmployeeNames {
			if value == noneValue {
				rec.SetEmployeeNames(nil)
			} else {
				rec.SetEmployeeNames(parseNameList(value))
			}
			continue
		}

		if value == noneValue {
			rec.Set(key, nil)
		} else {
			v := value
			rec.Set(key, &v)
		}
	}
	return rec
}

// parseNameList turns `["Juan Dela Cruz", 'Maria Santos']` into its names.
// The result is never nil.
func parseNameList(value string) []string {
	names := []string{}
	for _, tok := range strings.Split(strings.Trim(value, "[]"), ",") {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(tok), `"'`))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
