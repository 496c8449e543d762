// Package contracts holds the signing modules embedded in this build
// together with their pinned digests.
//
// contracts_gen.go is produced by cmd/modulegen and compiled only with
// the contracts build tag. Without it the manifest is empty and every
// selector is rejected as unsupported.
package contracts

//go:generate go run ../cmd/modulegen build --config ../modules.yaml --root ..
