/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"slices"
	"sync"

	"github.com/named-data/kite/fw/core"
)

// FaceTable is the global face table for this forwarder
var FaceTable = NewTable()

// Table hold all faces used by the forwarder.
type Table struct {
	mutex      sync.RWMutex
	faces      map[uint64]Face
	nextFaceID uint64 // starts at 1
}

// NewTable creates an empty face table.
func NewTable() *Table {
	return &Table{
		faces:      make(map[uint64]Face),
		nextFaceID: 1,
	}
}

func (t *Table) String() string {
	return "face-table"
}

// Add adds a face to the face table and assigns it the next face ID.
func (t *Table) Add(face Face) uint64 {
	t.mutex.Lock()
	faceID := t.nextFaceID
	t.nextFaceID++
	face.SetFaceID(faceID)
	t.faces[faceID] = face
	t.mutex.Unlock()

	core.Log.Debug(t, "Registered face", "faceid", faceID)
	return faceID
}

// AddWithID adds a face under a caller-chosen face ID.
// IDs handed out by Add afterwards are always larger.
func (t *Table) AddWithID(faceID uint64, face Face) error {
	if faceID == 0 {
		return fmt.Errorf("face ID 0 is reserved")
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.faces[faceID]; ok {
		return fmt.Errorf("face ID %d already in use", faceID)
	}
	face.SetFaceID(faceID)
	t.faces[faceID] = face
	if faceID >= t.nextFaceID {
		t.nextFaceID = faceID + 1
	}

	core.Log.Debug(t, "Registered face", "faceid", faceID)
	return nil
}

// Get gets the face with the specified ID (if any) from the face table.
func (t *Table) Get(id uint64) Face {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.faces[id]
}

// GetAll returns all faces ordered by face ID.
func (t *Table) GetAll() []Face {
	t.mutex.RLock()
	faces := make([]Face, 0, len(t.faces))
	for _, face := range t.faces {
		faces = append(faces, face)
	}
	t.mutex.RUnlock()

	slices.SortFunc(faces, func(a, b Face) int {
		switch {
		case a.FaceID() < b.FaceID():
			return -1
		case a.FaceID() > b.FaceID():
			return 1
		}
		return 0
	})
	return faces
}

// Remove removes a face from the face table.
func (t *Table) Remove(id uint64) {
	t.mutex.Lock()
	_, ok := t.faces[id]
	delete(t.faces, id)
	t.mutex.Unlock()

	if ok {
		core.Log.Info(t, "Unregistered face", "faceid", id)
	}
}
