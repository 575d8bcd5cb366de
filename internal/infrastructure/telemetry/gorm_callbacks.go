package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type queryStartKey struct{}

// callbackRegistrar is the value gorm returns from processor.Before/After
type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// registerAround installs before at the head of every GORM callback chain
// and after(op) once each operation finishes. op is the SQL verb; row and raw statements are
// classified from their text. With insideSpan the after hooks run before
// otelgorm ends the statement span.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(op string) func(*gorm.DB), insideSpan bool) error {
	cb := db.Callback()
	hooks := []struct {
		name, gormName, op   string
		before, after, inner callbackRegistrar
	}{
		{"create", "gorm:create", "INSERT", cb.Create().Before("*"), cb.Create().After("gorm:create"),
			cb.Create().After("gorm:create").Before("otel:after:create")},
		{"query", "gorm:query", "SELECT", cb.Query().Before("*"), cb.Query().After("gorm:query"),
			cb.Query().After("gorm:query").Before("otel:after:select")},
		{"update", "gorm:update", "UPDATE", cb.Update().Before("*"), cb.Update().After("gorm:update"),
			cb.Update().After("gorm:update").Before("otel:after:update")},
		{"delete", "gorm:delete", "DELETE", cb.Delete().Before("*"), cb.Delete().After("gorm:delete"),
			cb.Delete().After("gorm:delete").Before("otel:after:delete")},
		{"row", "gorm:row", "", cb.Row().Before("*"), cb.Row().After("gorm:row"),
			cb.Row().After("gorm:row").Before("otel:after:row")},
		{"raw", "gorm:raw", "", cb.Raw().Before("*"), cb.Raw().After("gorm:raw"),
			cb.Raw().After("gorm:raw").Before("otel:after:raw")},
	}
	for _, h := range hooks {
		if before != nil {
			if err := h.before.Register(prefix+":before_"+h.name, before); err != nil {
				return fmt.Errorf("register %s before %s: %w", prefix, h.gormName, err)
			}
		}
		if after == nil {
			continue
		}
		target := h.after
		if insideSpan {
			target = h.inner
		}
		if err := target.Register(prefix+":after_"+h.name, after(h.op)); err != nil {
			return fmt.Errorf("register %s after %s: %w", prefix, h.gormName, err)
		}
	}
	return nil
}

// markQueryStart stores the statement start time in its context
func markQueryStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

// queryElapsed returns the time since markQueryStart, or false if the
// statement was never marked
func queryElapsed(db *gorm.DB) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// statementOperation returns op, or the verb of the statement's SQL when op
// is empty
func statementOperation(db *gorm.DB, op string) string {
	if op != "" {
		return op
	}
	return detectOperationType(db.Statement.SQL.String())
}

// detectOperationType classifies SQL by its leading verb
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
