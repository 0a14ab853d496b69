// Drone Updater
// Copyright (c) 2026 The Drone Updater Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Drone Updater.
//
// Drone Updater is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Drone Updater is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Drone Updater.  If not, see <http://www.gnu.org/licenses/>.

package firmware

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cellaxon/drone-updater/pkg/protocol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Store holds every firmware image found in a directory at construction.
// It is read-only afterwards and safe to share.
type Store struct {
	images []*Image
}

// NewStore scans dir once and loads each regular file that parses as a
// firmware container. Files that fail to parse are logged and skipped; a
// missing directory yields an empty store.
func NewStore(fs afero.Fs, dir string) *Store {
	s := &Store{}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to read firmware directory")
		return s
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		// ReadDir does not follow symlinks; Stat the path so linked images load
		info, err := fs.Stat(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping firmware file")
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		img, err := load(fs, path)
		if err != nil {
			log.Warn().Err(err).Msg("skipping firmware file")
			continue
		}
		log.Info().
			Str("file", img.Name).
			Str("model", img.Model().String()).
			Str("version", img.Version().String()).
			Time("built", img.Header.BuildDate()).
			Int("blocks", img.BlockCount()).
			Msg("loaded firmware image")
		s.images = append(s.images, img)
	}

	return s
}

func load(fs afero.Fs, path string) (*Image, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	img, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	img.Name = filepath.Base(path)
	return img, nil
}

// Count is the number of loaded images.
func (s *Store) Count() int {
	return len(s.images)
}

// Matches reports whether image index targets model exactly.
func (s *Store) Matches(index int, model protocol.ModelNumber) bool {
	img, ok := s.at(index)
	return ok && img.Model() == model
}

// Find returns the index of the first image targeting model.
func (s *Store) Find(model protocol.ModelNumber) (int, bool) {
	for i := range s.images {
		if s.Matches(i, model) {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) Version(index int) protocol.Version {
	if img, ok := s.at(index); ok {
		return img.Version()
	}
	return protocol.Version{}
}

func (s *Store) Model(index int) protocol.ModelNumber {
	if img, ok := s.at(index); ok {
		return img.Model()
	}
	return protocol.ModelNone
}

func (s *Store) Name(index int) string {
	if img, ok := s.at(index); ok {
		return img.Name
	}
	return ""
}

func (s *Store) BlockCount(index int) int {
	if img, ok := s.at(index); ok {
		return img.BlockCount()
	}
	return 0
}

// ReadBlocks reads count blocks at block index start from image index.
func (s *Store) ReadBlocks(index, start, count int) ([]byte, error) {
	img, ok := s.at(index)
	if !ok {
		return nil, fmt.Errorf("%w: no image %d", ErrBlockOutOfRange, index)
	}
	return img.ReadBlocks(start, count)
}

// Images returns the loaded images in scan order.
func (s *Store) Images() []*Image {
	return append([]*Image(nil), s.images...)
}

func (s *Store) at(index int) (*Image, bool) {
	if index < 0 || index >= len(s.images) {
		return nil, false
	}
	return s.images[index], true
}
