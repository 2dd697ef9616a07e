package actor

// Kind distinguishes Singleton actors (one activation per key, process-
// wide, pinned to a single shard) from Local actors (one activation per
// key per shard, up to MaxActivations shards).
type Kind int

const (
	// Singleton actors have at most one activation per key across the
	// local process, pinned to the shard PlacementStrategy selects.
	Singleton Kind = iota
	// Local actors may have one activation per key on each of up to
	// MaxActivations shards; references round-robin across them.
	LocalKind
)

func (k Kind) String() string {
	switch k {
	case Singleton:
		return "singleton"
	case LocalKind:
		return "local"
	default:
		return "unknown"
	}
}

// PlacementFunc maps an activation ID to a shard index. It must be pure,
// deterministic, and stable for the process lifetime.
type PlacementFunc func(activationID uint64, shardCount int) int

// DefaultPlacement is hash mod shard_count, the default PlacementStrategy
// described above.
func DefaultPlacement(activationID uint64, shardCount int) int {
	return int(activationID % uint64(shardCount))
}

// Type is the static, per-actor-type configuration a user declares once
// for an actor type A with key type K. It plays the role the source's
// CRTP base class and macro-generated traits played: KeyType, Kind,
// Reentrant, placement, and the handler table are all obtained through
// this declared descriptor rather than through template specialization.
//
// K is the actor's declared KeyType (spec.md §3: "a hashable,
// equality-comparable value type that identifies an activation within
// the type"). New receives the key so an activation can retain it the
// same way the source's actor<A> base class retains it for every
// instance — see original_source/tests/actor_keys.cpp's string_actor,
// whose get_key() handler returns exactly the key the activation was
// constructed with.
type Type[A any, K comparable] struct {
	// Kind selects Singleton or Local activation semantics.
	Kind Kind
	// Reentrant, when false, serializes handler dispatch for a given
	// activation via a 1-permit semaphore.
	Reentrant bool
	// MaxActivations bounds how many shards a Local actor's activations
	// may live on. Zero means "all shards".
	MaxActivations int
	// Placement overrides the default hash-mod-shard-count strategy.
	Placement PlacementFunc
	// New constructs a fresh activation for key. Called at most once per
	// (key, shard) pair, by the shard that will own the activation, so a
	// user actor can retain its own key (e.g. to answer a get_key-style
	// handler) exactly as the original's per-actor KeyType field does.
	New func(key K) *A
}

// EffectivePlacement returns Placement if set, else DefaultPlacement.
func (t *Type[A, K]) EffectivePlacement() PlacementFunc {
	if t.Placement != nil {
		return t.Placement
	}
	return DefaultPlacement
}

// EffectiveMaxActivations resolves MaxActivations against the live shard
// count, implementing the min(shard_count, MaxActivations) interpretation
// of the Local-actor round-robin modulus — see DESIGN.md for why this
// reading, not "MaxActivations alone," was chosen to resolve the Open
// question about round-robin placement bounds.
func (t *Type[A, K]) EffectiveMaxActivations(shardCount int) int {
	if t.MaxActivations <= 0 || t.MaxActivations > shardCount {
		return shardCount
	}
	return t.MaxActivations
}
