package e2e

// e2e assembles the whole service the way cmd/surly does -- BadgerDB store,
// datastore tables, managers, HTTP router -- and exercises it end to end
// over real HTTP, with no stubbed collaborators.
