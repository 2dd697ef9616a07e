package actorref

import "github.com/dreamware/vactor/placement"

// Kind discriminates the three reference variants actor_ref_impl.hpp's
// actor_ref_variant describes.
type Kind int

const (
	// Local means the activation lives on the same shard the reference
	// was constructed on; Tell dispatches in-line.
	Local Kind = iota
	// Collocated means the activation lives on another shard of the same
	// process; Tell submits a closure to that shard.
	Collocated
	// Remote means the activation lives on another cluster node; Tell
	// serializes the message and invokes it over rpcendpoint.
	Remote
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Collocated:
		return "collocated"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Ref is a typed reference to an actor activation. It is a small value
// type, copyable and safe to pass across shard boundaries, the Go
// rendition of actor_ref_impl.hpp's collocated_actor_ref plus the
// variant's Remote arm.
//
// Ref retains the activation's own key (not just its hash) regardless of
// Kind, so that Local and Collocated dispatches can pass it to
// directory.Hold/Dispatch exactly as Remote already must decode it off
// the wire — see original_source/tests/actor_keys.cpp, where
// get<A>(key).tell(get_key) must answer with the same key no matter
// which of these three paths the reference took.
type Ref[A any, K comparable] struct {
	kind         Kind
	activationID uint64
	key          K
	shard        int
	node         placement.NodeDescriptor
	keyRaw       []byte
}

// Kind reports which dispatch path Tell will take for this reference.
func (r Ref[A, K]) Kind() Kind { return r.kind }

// ActivationID returns the hashed key identifying the activation.
func (r Ref[A, K]) ActivationID() uint64 { return r.activationID }

// Key returns the unhashed key this reference was obtained for.
func (r Ref[A, K]) Key() K { return r.key }

// Shard returns the owning shard index. Only meaningful when Kind is
// Local or Collocated.
func (r Ref[A, K]) Shard() int { return r.shard }

// Node returns the owning cluster node. Only meaningful when Kind is
// Remote.
func (r Ref[A, K]) Node() placement.NodeDescriptor { return r.node }
