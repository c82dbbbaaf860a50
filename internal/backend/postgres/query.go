package postgres

import (
	"fmt"
	"strings"

	"go-catalog-cache/internal/models"
)

// table describes how one resource is read: its document expression and the columns
// callers may filter and sort on
type table struct {
	name    string
	doc     string
	columns map[string]bool
}

const productDocument = `to_jsonb(t) || jsonb_build_object(
	'game_editions', COALESCE((SELECT jsonb_agg(to_jsonb(e) ORDER BY e.id) FROM game_editions e WHERE e.product_id = t.id), '[]'::jsonb),
	'subscription_plans', COALESCE((SELECT jsonb_agg(to_jsonb(p) || jsonb_build_object('durations',
		COALESCE((SELECT jsonb_agg(to_jsonb(d) ORDER BY d.months) FROM subscription_durations d WHERE d.plan_id = p.id), '[]'::jsonb)) ORDER BY p.id)
		FROM subscription_plans p WHERE p.product_id = t.id), '[]'::jsonb),
	'giftcard_denominations', COALESCE((SELECT jsonb_agg(to_jsonb(g) ORDER BY g.value) FROM giftcard_denominations g WHERE g.product_id = t.id), '[]'::jsonb),
	'software_license_types', COALESCE((SELECT jsonb_agg(to_jsonb(l) || jsonb_build_object('durations',
		COALESCE((SELECT jsonb_agg(to_jsonb(d) ORDER BY d.id) FROM software_license_durations d WHERE d.license_type_id = l.id), '[]'::jsonb)) ORDER BY l.id)
		FROM software_license_types l WHERE l.product_id = t.id), '[]'::jsonb))`

func columns(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var tables = map[string]table{
	"products": {
		name: "products",
		doc:  productDocument,
		columns: columns("id", "slug", "title", "product_type", "category_slug", "platform_slug",
			"base_price", "discount_percent", "is_active", "is_featured", "is_bestseller", "is_new",
			"created_at", "sales_count"),
	},
	"categories": {name: "categories", doc: "to_jsonb(t)", columns: columns("id", "slug", "name", "sort_order", "is_active")},
	"platforms":  {name: "platforms", doc: "to_jsonb(t)", columns: columns("id", "slug", "name", "sort_order", "is_active")},
	"banners":    {name: "banners", doc: "to_jsonb(t)", columns: columns("id", "title", "sort_order", "is_active")},
}

// BuildQuery translates q into parameterized SQL. Only known resources and columns are
// accepted, everything caller supplied travels as an argument.
func BuildQuery(q models.BackendQuery) (string, []any, error) {
	t, ok := tables[q.Resource]
	if !ok {
		return "", nil, fmt.Errorf("unknown resource %q", q.Resource)
	}

	where, args, err := buildWhere(t, q)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s AS doc, count(*) OVER () AS total FROM %s t%s", t.doc, t.name, where)

	if len(q.Order) > 0 {
		clauses := make([]string, len(q.Order))
		for i, o := range q.Order {
			if !t.columns[o.Field] {
				return "", nil, fmt.Errorf("unknown sort column %q for %s", o.Field, q.Resource)
			}
			direction := "ASC"
			if o.Desc {
				direction = "DESC"
			}
			clauses[i] = fmt.Sprintf("t.%s %s NULLS LAST", o.Field, direction)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(clauses, ", "))
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return sb.String(), args, nil
}

// BuildCountQuery returns SQL counting every row that matches the filters of q,
// ignoring order and paging
func BuildCountQuery(q models.BackendQuery) (string, []any, error) {
	t, ok := tables[q.Resource]
	if !ok {
		return "", nil, fmt.Errorf("unknown resource %q", q.Resource)
	}

	where, args, err := buildWhere(t, q)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT count(*) FROM %s t%s", t.name, where), args, nil
}

func buildWhere(t table, q models.BackendQuery) (string, []any, error) {
	var (
		conditions []string
		args       []any
	)
	for _, f := range q.Filters {
		if !t.columns[f.Field] {
			return "", nil, fmt.Errorf("unknown column %q for %s", f.Field, q.Resource)
		}
		switch f.Op {
		case models.OpEq:
			args = append(args, f.Value)
			conditions = append(conditions, fmt.Sprintf("t.%s = $%d", f.Field, len(args)))
		case models.OpILike:
			args = append(args, "%"+escapeLike(fmt.Sprint(f.Value))+"%")
			conditions = append(conditions, fmt.Sprintf("t.%s ILIKE $%d", f.Field, len(args)))
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}

	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
