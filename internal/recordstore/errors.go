package recordstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ReceiptKeeper/internal/errs"
)

// ConstraintError - нарушение уникальности. Columns содержит имена колонок без префикса таблицы.
type ConstraintError struct {
	Table   string
	Columns []string
	Err     error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("unique constraint failed on %s(%s): %v", e.Table, strings.Join(e.Columns, ", "), e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Is позволяет проверять ConstraintError через errors.Is по обоим sentinel'ам.
func (e *ConstraintError) Is(target error) bool {
	return target == errs.ErrUniqueViolation || target == errs.ErrStorage
}

// HasColumn сообщает, участвует ли колонка в нарушенном ограничении.
func (e *ConstraintError) HasColumn(col string) bool {
	for _, c := range e.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// UNIQUE constraint failed: users.email, users.uid (2067)
var uniqueMsgRe = regexp.MustCompile(`UNIQUE constraint failed: ([^()]+?)(?:\s*\(\d+\))?\s*$`)

// wrapError приводит ошибку драйвера к таксономии errs.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := asConstraint(err); ok {
		return ce
	}
	return fmt.Errorf("%w: %s: %w", errs.ErrStorage, op, err)
}

func asConstraint(err error) (*ConstraintError, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		// расширенные коды (SQLITE_CONSTRAINT_UNIQUE, _PRIMARYKEY) имеют базовый код SQLITE_CONSTRAINT
		if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return nil, false
		}
	}
	m := uniqueMsgRe.FindStringSubmatch(err.Error())
	if m == nil {
		return nil, false
	}
	ce := &ConstraintError{Err: err}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		table, col, ok := strings.Cut(part, ".")
		if !ok {
			ce.Columns = append(ce.Columns, part)
			continue
		}
		ce.Table = table
		ce.Columns = append(ce.Columns, col)
	}
	return ce, true
}
