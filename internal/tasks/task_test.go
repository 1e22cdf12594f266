// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromName(t *testing.T) {
	tests := []struct {
		name     string
		wantKind Kind
		wantOK   bool
	}{
		{name: "a.py", wantKind: KindScript, wantOK: true},
		{name: "A.PY", wantKind: KindScript, wantOK: true},
		{name: "report.ipynb", wantKind: KindNotebook, wantOK: true},
		{name: "Report.IpYnB", wantKind: KindNotebook, wantOK: true},
		{name: "notes.txt", wantOK: false},
		{name: "py", wantOK: false},
		{name: "archive.py.bak", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindFromName(tt.name)
			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, tt.wantKind, kind)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "script", KindScript.String())
	assert.Equal(t, "notebook", KindNotebook.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestTask_Stem(t *testing.T) {
	task, ok := New("/work/Sales_Push.ipynb")

	assert.True(t, ok)
	assert.Equal(t, "Sales_Push.ipynb", task.Name)
	assert.Equal(t, "Sales_Push", task.Stem())
	assert.Equal(t, "Sales_Push.ipynb", task.String())
}
