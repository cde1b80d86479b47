// Package tensor is the dense float32 kernel the network is written against.
//
// It provides three shapes of data:
//   - Matrix: row-major 2-D arrays (images, filters, weights)
//   - Vector: 1-D arrays (logits, probabilities, flattened features)
//   - Volume: 3-D (depth, height, width) arrays (feature maps)
//
// Every operation is single-threaded, allocates its result and leaves its
// operands untouched. Shape errors are programmer errors and panic with a
// message naming the operation and the shapes involved.
package tensor
