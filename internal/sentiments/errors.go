package sentiments

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrTableMissing = errors.New("sentiments table does not exist")
)

// Class groups persistence failures for logging.
type Class int

const (
	ClassNone Class = iota
	ClassTableMissing
	ClassUnauthorized
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTableMissing:
		return "table_missing"
	case ClassUnauthorized:
		return "unauthorized"
	default:
		return "other"
	}
}

const (
	sqlStateUndefinedTable = "42P01"
	restTableMissingCode   = "PGRST205"
)

var missingRelation = regexp.MustCompile(`relation "(?:[a-z_]+\.)?sentiments" does not exist`)

// coded matches gateway errors that expose a string code, such as PostgREST
// errors decoded by an HTTP client.
type coded interface {
	error
	Code() string
}

// Classify sorts a persistence error into a Class.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrTableMissing) {
		return ClassTableMissing
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyCode(string(pqErr.Code))
	}
	var c coded
	if errors.As(err, &c) {
		if cls := classifyCode(c.Code()); cls != ClassOther {
			return cls
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "Could not find the table") || missingRelation.MatchString(msg) {
		return ClassTableMissing
	}
	return ClassOther
}

// IsTableMissing reports whether err means the sentiments table is not provisioned.
func IsTableMissing(err error) bool {
	return Classify(err) == ClassTableMissing
}

func classifyCode(code string) Class {
	switch {
	case code == sqlStateUndefinedTable, code == restTableMissingCode:
		return ClassTableMissing
	case strings.HasPrefix(code, "28"), strings.HasPrefix(code, "PGRST3"):
		return ClassUnauthorized
	default:
		return ClassOther
	}
}
