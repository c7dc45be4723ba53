package layout

import (
	"math"
	"math/rand"

	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
)

// Force simulation parameters. The iteration cap bounds worst-case compute
// instead of a wall-clock deadline.
const (
	defaultForceSeed   = 42
	forceIterations    = 300
	forceRepulsion     = 60000.0
	forceSpringLength  = 140.0
	forceSpring        = 0.02
	forceClusterPull   = 0.05
	forceMinSeparation = 60.0
	forceInitialRadius = 400.0
	forceMaxStep       = 40.0
)

// ---------------------------------------------------------------------------
// Force — physics-style relaxation with folder clustering
// ---------------------------------------------------------------------------

// Force relaxes node positions with pairwise repulsion, spring attraction
// along edges, a gentle pull toward the node's folder-cluster centroid,
// and a final overlap-separation sweep. The view is exploratory rather
// than canonical, so determinism is provided only by the seed: the same
// seed and inputs always produce the same picture.
type Force struct {
	seed int64
}

// NewForce returns the force-directed engine with the given RNG seed.
func NewForce(seed int64) *Force { return &Force{seed: seed} }

// Name implements Engine.
func (f *Force) Name() string { return "force" }

// Compute implements Engine.
func (f *Force) Compute(nodes []*graph.Node, edges []*graph.Edge, res *analysis.Result) *Result {
	positions := make(map[string]Position, len(nodes))
	if len(nodes) == 0 {
		return &Result{Positions: positions}
	}

	rng := rand.New(rand.NewSource(f.seed))

	// Index nodes; seed initial positions on a jittered circle so the
	// simulation never starts from coincident points.
	ids := make([]string, len(nodes))
	px := make([]float64, len(nodes))
	py := make([]float64, len(nodes))
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		idx[n.ID] = i
		angle := 2.0 * math.Pi * float64(i) / float64(len(nodes))
		r := forceInitialRadius * (0.5 + 0.5*rng.Float64())
		px[i] = r * math.Cos(angle)
		py[i] = r * math.Sin(angle)
	}

	// Folder clusters: member indices per cluster key.
	clusters := make(map[string][]int)
	for i, n := range nodes {
		clusters[n.Folder()] = append(clusters[n.Folder()], i)
	}

	// Edge list as index pairs, skipping self-loops.
	type spring struct{ a, b int }
	springs := make([]spring, 0, len(edges))
	for _, e := range edges {
		a, okA := idx[e.SourceID]
		b, okB := idx[e.TargetID]
		if okA && okB && a != b {
			springs = append(springs, spring{a, b})
		}
	}

	fx := make([]float64, len(nodes))
	fy := make([]float64, len(nodes))

	for iter := 0; iter < forceIterations; iter++ {
		for i := range fx {
			fx[i], fy[i] = 0, 0
		}

		// Pairwise repulsion.
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				dx := px[i] - px[j]
				dy := py[i] - py[j]
				distSq := dx*dx + dy*dy
				if distSq < 1 {
					distSq = 1
				}
				dist := math.Sqrt(distSq)
				f := forceRepulsion / distSq
				fx[i] += f * dx / dist
				fy[i] += f * dy / dist
				fx[j] -= f * dx / dist
				fy[j] -= f * dy / dist
			}
		}

		// Spring attraction along edges.
		for _, s := range springs {
			dx := px[s.b] - px[s.a]
			dy := py[s.b] - py[s.a]
			dist := math.Hypot(dx, dy)
			if dist < 1 {
				dist = 1
			}
			f := forceSpring * (dist - forceSpringLength)
			fx[s.a] += f * dx / dist
			fy[s.a] += f * dy / dist
			fx[s.b] -= f * dx / dist
			fy[s.b] -= f * dy / dist
		}

		// Cluster gravity toward the folder centroid.
		for _, members := range clusters {
			if len(members) < 2 {
				continue
			}
			var cx, cy float64
			for _, i := range members {
				cx += px[i]
				cy += py[i]
			}
			cx /= float64(len(members))
			cy /= float64(len(members))
			for _, i := range members {
				fx[i] += (cx - px[i]) * forceClusterPull
				fy[i] += (cy - py[i]) * forceClusterPull
			}
		}

		// Integrate with cooling and a step cap so no node teleports.
		cooling := 1.0 - float64(iter)/float64(forceIterations)
		for i := range nodes {
			step := math.Hypot(fx[i], fy[i])
			if step > forceMaxStep {
				fx[i] = fx[i] / step * forceMaxStep
				fy[i] = fy[i] / step * forceMaxStep
			}
			px[i] += fx[i] * cooling
			py[i] += fy[i] * cooling
		}
	}

	// Overlap prevention: push apart any remaining too-close pairs.
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			dx := px[j] - px[i]
			dy := py[j] - py[i]
			dist := math.Hypot(dx, dy)
			if dist >= forceMinSeparation {
				continue
			}
			if dist < 1 {
				// Coincident points: separate along a deterministic angle.
				angle := 2.0 * math.Pi * float64(i*len(nodes)+j) / float64(len(nodes)*len(nodes))
				dx, dy, dist = math.Cos(angle), math.Sin(angle), 1
			}
			push := (forceMinSeparation - dist) / 2
			px[i] -= dx / dist * push
			py[i] -= dy / dist * push
			px[j] += dx / dist * push
			py[j] += dy / dist * push
		}
	}

	for i, id := range ids {
		positions[id] = Position{X: px[i], Y: py[i]}
	}
	return &Result{Positions: positions}
}
