// Package demo builds a small deterministic snapshot of a fictitious web
// service, used to seed an empty database so the UI has something to show
// on first run.
package demo

import (
	"context"
	"fmt"

	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/store"
)

// RepoName is the repository the seeder creates.
const RepoName = "demo-shop"

// Snapshot returns the demo dependency graph: a checkout service with an
// HTTP layer, a couple of domain classes and their helper functions.
// Node IDs are stable so repeated seeding is reproducible.
func Snapshot() *graph.Snapshot {
	type spec struct {
		id, label  string
		typ        graph.NodeType
		file       string
		start, end int
		cx, loc    int
	}
	specs := []spec{
		{"mod-app", "app", graph.NodeTypeModule, "app/__init__.py", 1, 40, 0, 40},
		{"mod-api", "api", graph.NodeTypeModule, "app/api/routes.py", 1, 220, 0, 220},
		{"mod-orders", "orders", graph.NodeTypeModule, "app/orders/service.py", 1, 310, 0, 310},
		{"mod-billing", "billing", graph.NodeTypeModule, "app/billing/gateway.py", 1, 180, 0, 180},

		{"cls-order", "Order", graph.NodeTypeClass, "app/orders/service.py", 12, 96, 9, 84},
		{"cls-cart", "Cart", graph.NodeTypeClass, "app/orders/cart.py", 8, 77, 6, 69},
		{"cls-invoice", "Invoice", graph.NodeTypeClass, "app/billing/gateway.py", 14, 88, 11, 74},

		{"fn-checkout", "checkout", graph.NodeTypeFunction, "app/api/routes.py", 40, 131, 24, 91},
		{"fn-list-orders", "list_orders", graph.NodeTypeFunction, "app/api/routes.py", 133, 159, 5, 26},
		{"fn-charge", "charge", graph.NodeTypeFunction, "app/billing/gateway.py", 92, 170, 31, 78},
		{"fn-tax", "apply_tax", graph.NodeTypeFunction, "app/billing/tax.py", 4, 36, 12, 32},
		{"m-order-total", "Order.total", graph.NodeTypeMethod, "app/orders/service.py", 55, 80, 8, 25},
		{"m-cart-add", "Cart.add_item", graph.NodeTypeMethod, "app/orders/cart.py", 21, 44, 4, 23},
		{"m-invoice-render", "Invoice.render", graph.NodeTypeMethod, "app/billing/gateway.py", 40, 74, 7, 34},
	}

	nodes := make([]*graph.Node, 0, len(specs))
	for _, s := range specs {
		nodes = append(nodes, &graph.Node{
			ID: s.id, Label: s.label, Type: s.typ, FilePath: s.file,
			StartLine: s.start, EndLine: s.end,
			CyclomaticComplexity: s.cx, LinesOfCode: s.loc,
		})
	}

	type link struct {
		id, src, dst string
		typ          graph.EdgeType
	}
	links := []link{
		{"e-app-api", "mod-app", "mod-api", graph.EdgeTypeImports},
		{"e-app-orders", "mod-app", "mod-orders", graph.EdgeTypeImports},
		{"e-api-orders", "mod-api", "mod-orders", graph.EdgeTypeImports},
		{"e-api-billing", "mod-api", "mod-billing", graph.EdgeTypeImports},
		{"e-orders-billing", "mod-orders", "mod-billing", graph.EdgeTypeImports},
		// A deliberate cycle so the matrix view has something to flag.
		{"e-billing-orders", "mod-billing", "mod-orders", graph.EdgeTypeImports},

		{"e-orders-order", "mod-orders", "cls-order", graph.EdgeTypeContains},
		{"e-orders-cart", "mod-orders", "cls-cart", graph.EdgeTypeContains},
		{"e-billing-invoice", "mod-billing", "cls-invoice", graph.EdgeTypeContains},
		{"e-api-checkout", "mod-api", "fn-checkout", graph.EdgeTypeContains},
		{"e-api-list", "mod-api", "fn-list-orders", graph.EdgeTypeContains},
		{"e-billing-charge", "mod-billing", "fn-charge", graph.EdgeTypeContains},
		{"e-billing-tax", "mod-billing", "fn-tax", graph.EdgeTypeContains},
		{"e-order-total", "cls-order", "m-order-total", graph.EdgeTypeContains},
		{"e-cart-add", "cls-cart", "m-cart-add", graph.EdgeTypeContains},
		{"e-invoice-render", "cls-invoice", "m-invoice-render", graph.EdgeTypeContains},

		{"e-checkout-order", "fn-checkout", "cls-order", graph.EdgeTypeCalls},
		{"e-checkout-charge", "fn-checkout", "fn-charge", graph.EdgeTypeCalls},
		{"e-checkout-cartadd", "fn-checkout", "m-cart-add", graph.EdgeTypeCalls},
		{"e-list-order", "fn-list-orders", "cls-order", graph.EdgeTypeCalls},
		{"e-charge-tax", "fn-charge", "fn-tax", graph.EdgeTypeCalls},
		{"e-charge-invoice", "fn-charge", "cls-invoice", graph.EdgeTypeCalls},
		{"e-total-tax", "m-order-total", "fn-tax", graph.EdgeTypeCalls},
		{"e-invoice-order", "cls-invoice", "cls-order", graph.EdgeTypeInherits},
	}

	edges := make([]*graph.Edge, 0, len(links))
	for _, l := range links {
		edges = append(edges, &graph.Edge{ID: l.id, SourceID: l.src, TargetID: l.dst, Type: l.typ})
	}

	return &graph.Snapshot{Nodes: nodes, Edges: edges}
}

// SeedIfEmpty creates the demo repository when the store holds no
// repositories at all. Returns the repo ID when seeding happened.
func SeedIfEmpty(ctx context.Context, st *store.Store) (string, error) {
	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return "", fmt.Errorf("demo: list repositories: %w", err)
	}
	if len(repos) > 0 {
		return "", nil
	}

	repo, err := st.CreateRepository(ctx, "", RepoName, "Seeded demo snapshot")
	if err != nil {
		return "", fmt.Errorf("demo: create repository: %w", err)
	}
	if err := st.SaveSnapshot(ctx, repo.ID, Snapshot()); err != nil {
		return "", fmt.Errorf("demo: save snapshot: %w", err)
	}
	return repo.ID, nil
}
