package metadata

import "github.com/HoldYourWaffle2/tsoa/internal/declaration"

// Registry caches reference records for one generation run and breaks
// reference cycles.
//
// Holders keep a Type handle ({Kind: ref, Ref: name}) and dereference through
// the registry, so storing the final record makes it visible to every holder.
// A name reached again while it is still in progress gets a placeholder: an
// empty record queued for patching. Finish copies every stored record into
// its queued placeholders, in enqueue order.
//
// A record whose bases are still in progress cannot copy their properties
// yet. It is stored with what is known and an inheritance plan is queued;
// Finish recomputes such records from their bases before any placeholder is
// patched.
//
// A Registry is run-scoped state with no locking. Call Reset at every run
// boundary and never share one between concurrent runs.
type Registry struct {
	refs       map[string]*Reference
	order      []string
	inProgress map[string]bool

	pending      []pendingPatch
	placeholders map[string]*Reference

	plans     map[string]inheritPlan
	planOrder []string

	owners map[string]*declaration.Declaration
}

// inheritPlan rebuilds a record as the properties of its bases, in order,
// followed by its own.
type inheritPlan struct {
	bases []string
	own   []Property
}

type pendingPatch struct {
	name   string
	target *Reference
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset clears the cache, the in-progress set and the pending queue.
func (r *Registry) Reset() {
	r.refs = make(map[string]*Reference)
	r.order = nil
	r.inProgress = make(map[string]bool)
	r.pending = nil
	r.placeholders = make(map[string]*Reference)
	r.plans = make(map[string]inheritPlan)
	r.planOrder = nil
	r.owners = make(map[string]*declaration.Declaration)
}

// Claim binds a canonical name to the declaration it is generated from. It
// returns the previous owner and false when name already belongs to a
// different declaration.
func (r *Registry) Claim(name string, decl *declaration.Declaration) (*declaration.Declaration, bool) {
	if prev, ok := r.owners[name]; ok && prev != decl {
		return prev, false
	}
	r.owners[name] = decl
	return decl, true
}

// Lookup returns the stored record for name.
func (r *Registry) Lookup(name string) (*Reference, bool) {
	ref, ok := r.refs[name]
	return ref, ok
}

// Has checks if a record is stored under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.refs[name]
	return ok
}

// MarkInProgress flags name as being resolved.
func (r *Registry) MarkInProgress(name string) {
	r.inProgress[name] = true
}

// Unmark clears the in-progress flag.
func (r *Registry) Unmark(name string) {
	delete(r.inProgress, name)
}

// InProgress reports whether name is currently being resolved.
func (r *Registry) InProgress(name string) bool {
	return r.inProgress[name]
}

// Store records the final record under its canonical name.
func (r *Registry) Store(ref *Reference) {
	if _, exists := r.refs[ref.Name]; !exists {
		r.order = append(r.order, ref.Name)
	}
	r.refs[ref.Name] = ref
}

// Placeholder returns a handle for an in-progress name and queues an empty
// record for patching when the run finishes.
func (r *Registry) Placeholder(name string) Type {
	p := &Reference{Name: name}
	r.pending = append(r.pending, pendingPatch{name: name, target: p})
	r.placeholders[name] = p
	return RefTo(name)
}

// Deref returns the record behind a handle. Before Finish, a name that only
// has a placeholder yields the empty placeholder record; callers must not
// branch on its contents until the run is complete.
func (r *Registry) Deref(name string) *Reference {
	if ref, ok := r.refs[name]; ok {
		return ref
	}
	return r.placeholders[name]
}

// DeferInheritance queues a rebuild of name from bases and own, applied by
// Finish. Use it when a base is in progress or deferred itself.
func (r *Registry) DeferInheritance(name string, bases []string, own []Property) {
	if _, ok := r.plans[name]; !ok {
		r.planOrder = append(r.planOrder, name)
	}
	r.plans[name] = inheritPlan{bases: bases, own: own}
}

// Deferred reports whether name still waits for its inherited properties.
func (r *Registry) Deferred(name string) bool {
	_, ok := r.plans[name]
	return ok
}

// Finish completes deferred inheritance, bases before the records built on
// them, then applies queued placeholder patches in enqueue order. A patch
// whose name never received a final record is skipped.
func (r *Registry) Finish() {
	done := make(map[string]bool, len(r.plans))
	for _, name := range r.planOrder {
		r.inherit(name, done)
	}
	r.plans = make(map[string]inheritPlan)
	r.planOrder = nil

	for _, p := range r.pending {
		final, ok := r.refs[p.name]
		if !ok {
			continue
		}
		p.target.Description = final.Description
		p.target.Example = final.Example
		p.target.AdditionalProperties = final.AdditionalProperties
		p.target.Properties = append([]Property(nil), final.Properties...)
		p.target.Enum = final.Enum
		p.target.EnumValues = final.EnumValues
	}
	r.pending = nil
}

func (r *Registry) inherit(name string, done map[string]bool) {
	plan, ok := r.plans[name]
	if !ok || done[name] {
		return
	}
	done[name] = true

	var props []Property
	for _, base := range plan.bases {
		r.inherit(base, done)
		if ref, ok := r.refs[base]; ok {
			props = append(props, ref.Properties...)
		}
	}
	props = append(props, plan.own...)
	if ref, ok := r.refs[name]; ok {
		ref.Properties = props
	}
}

// Pending returns the number of queued placeholder patches.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// Names returns the stored canonical names in the order they were stored.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of stored records.
func (r *Registry) Len() int {
	return len(r.refs)
}

// References returns the stored records keyed by canonical name.
func (r *Registry) References() map[string]*Reference {
	out := make(map[string]*Reference, len(r.refs))
	for k, v := range r.refs {
		out[k] = v
	}
	return out
}
