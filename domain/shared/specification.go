package shared

// Specification encapsulates a business predicate over candidates of type T.
// Specifications are evaluated in memory against already-materialized aggregates.
type Specification[T any] interface {
	IsSatisfiedBy(candidate T) bool
}

// ============================================================================
// Composite Specifications
// ============================================================================

// AndSpecification is satisfied when both operands are satisfied.
type AndSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(candidate T) bool {
	return spec.Left.IsSatisfiedBy(candidate) && spec.Right.IsSatisfiedBy(candidate)
}

// And creates a new AndSpecification
func And[T any](left, right Specification[T]) Specification[T] {
	return AndSpecification[T]{Left: left, Right: right}
}

// TrueSpecification is satisfied by every candidate.
type TrueSpecification[T any] struct{}

func (TrueSpecification[T]) IsSatisfiedBy(T) bool { return true }

// All folds specs into a single conjunction. With no specs every candidate passes.
func All[T any](specs ...Specification[T]) Specification[T] {
	var result Specification[T] = TrueSpecification[T]{}
	for i, spec := range specs {
		if i == 0 {
			result = spec
			continue
		}
		result = And(result, spec)
	}
	return result
}
