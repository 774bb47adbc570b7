package recordstore

import (
	"fmt"
	"strconv"
	"time"
)

// Row - одна строка результата: имя колонки → значение драйвера.
type Row map[string]any

// String возвращает значение колонки как строку; NULL → "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 возвращает целое значение колонки; нечисловые значения дают 0.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

func (r Row) Bool(col string) bool {
	if b, ok := r[col].(bool); ok {
		return b
	}
	return r.Int64(col) != 0
}

// Time читает unix-миллисекунды; 0 → нулевое время.
func (r Row) Time(col string) time.Time {
	ms := r.Int64(col)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Millis - обратное преобразование для параметров запросов.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
