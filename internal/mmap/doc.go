// Package mmap maps segment blobs of a local index into memory read-only.
//
//	m, err := mmap.Open("00000001.term")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// On Unix the file is mapped with mmap(2). On other platforms the file is read
// into memory, which keeps the API identical.
package mmap
