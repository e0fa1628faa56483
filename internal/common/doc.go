// Package common holds small helpers shared by keeperbot components:
// random byte generation and wiping of sensitive buffers.
package common
