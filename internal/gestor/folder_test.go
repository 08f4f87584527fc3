package gestor_test

import (
	"testing"

	"gestor-go/internal/gestor"
)

func TestFolderPath(t *testing.T) {
	folders := gestor.DefaultFolders()
	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"ambito-1", "Ámbito I, Institucional", true},
		{"folder-1-2", "Ámbito I, Institucional / Recursos Humanos", true},
		{"folder-2-1-1", "Ámbito II, Ministerio de Educación / Departamento de Planificación / División de Presupuesto", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := gestor.FolderPath(folders, tt.id)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FolderPath(%q) = %q, %v; want %q, %v", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestContainerDir(t *testing.T) {
	if got := gestor.ContainerDir("Ámbito I / RRHH"); got != "Ámbito I/RRHH" {
		t.Errorf("ContainerDir() = %q", got)
	}
}

func TestWorkspace_DeleteFolderKeepsCachedPaths(t *testing.T) {
	ws := gestor.NewWorkspace()
	ws.Documents = []*gestor.IncomingDocument{{
		ID:                "doc-1",
		DestinationFolder: &gestor.FolderRef{ID: "folder-1-1", Path: "Ámbito I, Institucional / Dirección General"},
	}}
	if err := ws.DeleteFolder("folder-1-1"); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}
	if gestor.FindFolder(ws.Folders, "folder-1-1") != nil {
		t.Error("folder still present")
	}
	if got := ws.Documents[0].FolderPath(); got != "Ámbito I, Institucional / Dirección General" {
		t.Errorf("FolderPath() = %q, want cached path", got)
	}
}

func TestDefaultFolders_Independent(t *testing.T) {
	a := gestor.DefaultFolders()
	a[0].Name = "changed"
	if gestor.DefaultFolders()[0].Name == "changed" {
		t.Error("DefaultFolders() returned shared state")
	}
}
