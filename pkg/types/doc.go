// Package types defines the variant descriptors, root configuration, attribute
// bags, collaborator interfaces, and standard errors shared by the strata
// hierarchy core and its storage backends.
//
// A hierarchy is a tree of Variants persisted in one physical table. Each row
// carries a discriminator value (the variant Tag) in a single column named by
// RootConfig.DiscriminatorColumn.
package types
