package graph

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested node does not exist.
	ErrNotFound = errors.New("node not found")

	// ErrStructuralIntegrity indicates a write referenced a parent node that
	// does not exist in the graph.
	ErrStructuralIntegrity = errors.New("structural integrity violation")
)

// wrapWriteError translates driver errors into the package taxonomy.
// Foreign key violations mean the caller tried to attach a child to a
// missing parent.
func wrapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return fmt.Errorf("%s: %w: %s", op, ErrStructuralIntegrity, pgErr.Detail)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// wrapReadError maps pgx.ErrNoRows onto ErrNotFound.
func wrapReadError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
