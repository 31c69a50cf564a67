// Package core centralizes the domain contracts shared by every other
// package: the Message envelope exchanged over the broker, the closed sets of
// agent roles, message types and priorities, and the document / chat / user
// models those messages carry. Keeping the contracts here lets the broker,
// the agent runtime and the stores depend on a single leaf package without
// import cycles.
package core
