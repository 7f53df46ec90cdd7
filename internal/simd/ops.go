package simd

// Bitwise and shift operators are only defined for integer lanes, so they
// live here as functions instead of Vector methods. Every ...Assign form is
// the corresponding operator followed by assignment.

// And returns a & b lane by lane.
func And[T Integer, A Array[T]](a, b Vector[T, A]) Vector[T, A] {
	return a.zip(b, func(x, y T) T { return x & y })
}

// Or returns a | b lane by lane.
func Or[T Integer, A Array[T]](a, b Vector[T, A]) Vector[T, A] {
	return a.zip(b, func(x, y T) T { return x | y })
}

// Xor returns a ^ b lane by lane.
func Xor[T Integer, A Array[T]](a, b Vector[T, A]) Vector[T, A] {
	return a.zip(b, func(x, y T) T { return x ^ y })
}

// AndNot returns a &^ b lane by lane.
func AndNot[T Integer, A Array[T]](a, b Vector[T, A]) Vector[T, A] {
	return a.zip(b, func(x, y T) T { return x &^ y })
}

// Not returns ^a lane by lane.
func Not[T Integer, A Array[T]](a Vector[T, A]) Vector[T, A] {
	return a.mapLanes(func(x T) T { return ^x })
}

// Shl returns a << b lane by lane. Counts are taken as unsigned, so a
// negative or oversized count shifts every bit out.
func Shl[T Integer, A Array[T]](a, b Vector[T, A]) Vector[T, A] {
	return a.zip(b, func(x, y T) T { return x << uint64(y) })
}

// Shr returns a >> b lane by lane. Signed lanes shift arithmetically.
func Shr[T Integer, A Array[T]](a, b Vector[T, A]) Vector[T, A] {
	return a.zip(b, func(x, y T) T { return x >> uint64(y) })
}

// AndAssign sets *dst to And(*dst, o).
func AndAssign[T Integer, A Array[T]](dst *Vector[T, A], o Vector[T, A]) {
	*dst = And(*dst, o)
}

// OrAssign sets *dst to Or(*dst, o).
func OrAssign[T Integer, A Array[T]](dst *Vector[T, A], o Vector[T, A]) {
	*dst = Or(*dst, o)
}

// XorAssign sets *dst to Xor(*dst, o).
func XorAssign[T Integer, A Array[T]](dst *Vector[T, A], o Vector[T, A]) {
	*dst = Xor(*dst, o)
}

// ShlAssign sets *dst to Shl(*dst, o).
func ShlAssign[T Integer, A Array[T]](dst *Vector[T, A], o Vector[T, A]) {
	*dst = Shl(*dst, o)
}

// ShrAssign sets *dst to Shr(*dst, o).
func ShrAssign[T Integer, A Array[T]](dst *Vector[T, A], o Vector[T, A]) {
	*dst = Shr(*dst, o)
}
