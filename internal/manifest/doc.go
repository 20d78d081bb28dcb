// Package manifest persists the committed state of an index.
//
// Every commit writes an immutable meta blob named meta-<opstamp>.json and
// then replaces the CURRENT blob with that name. Readers follow CURRENT, so a
// commit becomes visible atomically once CURRENT is written. Meta blobs are
// not counted in space usage.
package manifest
