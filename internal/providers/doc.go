// Package providers defines the external catalog abstraction shared by the
// metadata orchestrator. Each subpackage implements one upstream (RAWG,
// IGDB, SteamGridDB, the Steam storefront) behind the same Provider
// interface so the orchestrator can fan out by priority without knowing any
// upstream's wire format.
package providers
