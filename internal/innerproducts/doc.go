// Package innerproducts provides the coefficient blocks of the coupled
// model. Each block writes its polynomial tendency terms into a shared
// sparse builder using the augmented index convention: index 0 is the
// constant 1, so a term (i, 0, 0) is a constant, (i, 0, j) is linear in
// variable j and (i, j, k) with j, k ≥ 1 is quadratic.
//
// The atmosphere is the Lorenz-84 low-order general circulation:
//
//	ẋ = -y² - z² - a·x + a·F
//	ẏ = x·y - b·x·z - y + G
//	ż = b·x·y + x·z - z
//
// The "Oceanic Temperature" block is a slab ocean whose modes relax towards
// zero and take up heat from the westerly wind x. Once the blocks are
// connected, each ocean mode shifts the atmospheric forcing F.
package innerproducts
