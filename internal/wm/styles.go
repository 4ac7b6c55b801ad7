// internal/wm/styles.go
package wm

// Combo box styles consulted by the has-strings test.
const (
	CBSOwnerDrawFixed    = 0x0010
	CBSOwnerDrawVariable = 0x0020
	CBSHasStrings        = 0x0200
)

// List box styles.
const (
	LBSOwnerDrawFixed    = 0x0010
	LBSOwnerDrawVariable = 0x0020
	LBSHasStrings        = 0x0040
)

// Extended window styles.
const (
	WSExMDIChild = 0x00000040
)
