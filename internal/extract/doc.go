// Package extract converts raw parser output into validated records,
// applying price, dimension, status, and identity normalization.
package extract
