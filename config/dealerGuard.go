package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/dealersync_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DealerGuardPlugin enforces multi-tenant isolation by automatically scoping
// queries/updates/deletes to the request's dealer_id when the model has a dealer_id column.
//
// NOTE:
// - This does NOT apply to Raw SQL queries. Those must include dealer_id manually.
// - Admin/internal bypass is explicit via context flags.
type DealerGuardPlugin struct{}

func NewDealerGuardPlugin() *DealerGuardPlugin { return &DealerGuardPlugin{} }

func (p *DealerGuardPlugin) Name() string { return "dealer_guard" }

func (p *DealerGuardPlugin) Initialize(db *gorm.DB) error {
	// Query
	if err := db.Callback().Query().Before("gorm:query").Register("dealer_guard:query", dealerGuardCallback); err != nil {
		return err
	}
	// Row (First/Take)
	if err := db.Callback().Row().Before("gorm:row").Register("dealer_guard:row", dealerGuardCallback); err != nil {
		return err
	}
	// Update
	if err := db.Callback().Update().Before("gorm:update").Register("dealer_guard:update", dealerGuardCallback); err != nil {
		return err
	}
	// Delete
	if err := db.Callback().Delete().Before("gorm:delete").Register("dealer_guard:delete", dealerGuardCallback); err != nil {
		return err
	}
	return nil
}

func dealerGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassDealerScope(ctx) {
		return
	}
	dealerID := dealerIdFromContext(ctx)
	if dealerID == "" {
		return
	}

	// Only apply if the current model/table includes a dealer_id column.
	if db.Statement.Schema == nil {
		return
	}
	hasDealerID := false
	for _, f := range db.Statement.Schema.Fields {
		if strings.EqualFold(f.DBName, "dealer_id") {
			hasDealerID = true
			break
		}
	}
	if !hasDealerID {
		return
	}

	// Don't duplicate an explicit tenant filter.
	if whereHasDealerID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "dealer_id"},
				Value:  dealerID,
			},
		},
	})
}

func dealerIdFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(appctx.ContextKeyDealerId).(string); ok && v != "" {
		return v
	}
	return ""
}

func shouldBypassDealerScope(ctx context.Context) bool {
	if v, ok := ctx.Value(appctx.ContextKeySkipDealerScope).(bool); ok && v {
		return true
	}
	if v, ok := ctx.Value(appctx.ContextKeyIsAdmin).(bool); ok && v {
		return true
	}
	return false
}

func whereHasDealerID(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasDealerID(e) {
			return true
		}
	}
	return false
}

func exprHasDealerID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsDealerID(v.Column)
	case clause.Neq:
		return colIsDealerID(v.Column)
	case clause.IN:
		return colIsDealerID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasDealerID(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasDealerID(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		return strings.Contains(strings.ToLower(v.SQL), "dealer_id")
	default:
		return false
	}
}

func colIsDealerID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "dealer_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "dealer_id")
	default:
		return false
	}
}
