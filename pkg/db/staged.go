package db

// Mutation is a single staged batch operation.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Staged keeps batch operations in the order they were issued. It is used by
// backends whose engine has no native batch object.
type Staged struct {
	ops []Mutation
}

func (s *Staged) Put(key, value []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	s.ops = append(s.ops, Mutation{Key: Clone(key), Value: Clone(value)})
	return nil
}

func (s *Staged) Delete(key []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	s.ops = append(s.ops, Mutation{Key: Clone(key), Delete: true})
	return nil
}

func (s *Staged) Clear() {
	s.ops = nil
}

func (s *Staged) Len() int {
	return len(s.ops)
}

// Ops returns the staged operations in issue order. The slice must not be modified.
func (s *Staged) Ops() []Mutation {
	return s.ops
}
