// Copyright 2025 The Doclens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTextUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Text(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Text() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTextMissingFile(t *testing.T) {
	_, err := Text(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Error("Text() error = nil, want error for missing file")
	}
}

func TestTextCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(path, []byte("not a zip archive"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Text(path); err == nil {
		t.Error("Text() error = nil, want parse error for corrupt file")
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dpa.json")
	want := Document{Text: `{"clauses":[{"title":"Definitions"}]}`}

	if err := WriteJSON(path, want); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got != want {
		t.Errorf("ReadJSON() = %+v, want %+v", got, want)
	}
}

func TestReadJSONMissing(t *testing.T) {
	if _, err := ReadJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("ReadJSON() error = nil, want error")
	}
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadJSON(path); err == nil {
		t.Error("ReadJSON() error = nil, want parse error")
	}
}
