package domain

// SchemaObject describes one target as the remote schema defines it.
type SchemaObject struct {
	Target      string
	Cardinality *int
	Label       *string
	Perms       []string
}

// PermittedFor reports whether a caller holding permissions may use the
// object. Objects without permissions are visible to everyone.
func (o SchemaObject) PermittedFor(permissions []string) bool {
	if len(o.Perms) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		held[p] = struct{}{}
	}
	for _, p := range o.Perms {
		if _, ok := held[p]; !ok {
			return false
		}
	}
	return true
}

// StaticSchema is an in-memory schema keyed by target.
type StaticSchema struct {
	objects map[string]SchemaObject
}

// NewStaticSchema creates a schema from objects. Later duplicates win.
func NewStaticSchema(objects ...SchemaObject) *StaticSchema {
	s := &StaticSchema{objects: make(map[string]SchemaObject, len(objects))}
	for _, o := range objects {
		s.objects[o.Target] = o
	}
	return s
}

// FindObjectByTarget returns the object for target if it exists and the
// permissions allow it.
func (s *StaticSchema) FindObjectByTarget(target string, permissions []string) (*SchemaObject, bool) {
	o, ok := s.objects[target]
	if !ok || !o.PermittedFor(permissions) {
		return nil, false
	}
	return &o, true
}

// Len returns the number of targets in the schema.
func (s *StaticSchema) Len() int {
	return len(s.objects)
}
