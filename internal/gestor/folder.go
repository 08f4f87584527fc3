package gestor

import (
	"fmt"
	"strings"
)

// FolderPathSeparator joins ancestor names in a folder display path.
const FolderPathSeparator = " / "

// Folder is a node in the destination folder tree. A parent exclusively owns
// its children.
type Folder struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Children []*Folder `json:"children"`
}

// DefaultFolders returns the tree a fresh workspace is seeded with.
func DefaultFolders() []*Folder {
	leaf := func(id, name string) *Folder {
		return &Folder{ID: id, Name: name, Children: []*Folder{}}
	}
	return []*Folder{
		{
			ID:   "ambito-1",
			Name: "Ámbito I, Institucional",
			Children: []*Folder{
				leaf("folder-1-1", "Dirección General"),
				leaf("folder-1-2", "Recursos Humanos"),
			},
		},
		{
			ID:   "ambito-2",
			Name: "Ámbito II, Ministerio de Educación",
			Children: []*Folder{
				{
					ID:   "folder-2-1",
					Name: "Departamento de Planificación",
					Children: []*Folder{
						leaf("folder-2-1-1", "División de Presupuesto"),
					},
				},
			},
		},
	}
}

// FindFolder returns the folder with the given id anywhere in the tree.
func FindFolder(folders []*Folder, id string) *Folder {
	for _, f := range folders {
		if f.ID == id {
			return f
		}
		if found := FindFolder(f.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// FolderPath returns the display path of the folder with the given id,
// e.g. "Ámbito I / Recursos Humanos".
func FolderPath(folders []*Folder, id string) (string, bool) {
	names, ok := folderLineage(folders, id)
	if !ok {
		return "", false
	}
	return strings.Join(names, FolderPathSeparator), true
}

func folderLineage(folders []*Folder, id string) ([]string, bool) {
	for _, f := range folders {
		if f.ID == id {
			return []string{f.Name}, true
		}
		if rest, ok := folderLineage(f.Children, id); ok {
			return append([]string{f.Name}, rest...), true
		}
	}
	return nil, false
}

// ContainerDir converts a folder display path into a container directory.
func ContainerDir(displayPath string) string {
	return strings.ReplaceAll(displayPath, FolderPathSeparator, "/")
}

func cloneFolders(in []*Folder) []*Folder {
	if in == nil {
		return nil
	}
	out := make([]*Folder, len(in))
	for i, f := range in {
		out[i] = &Folder{ID: f.ID, Name: f.Name, Children: cloneFolders(f.Children)}
	}
	return out
}

// removeFolder detaches the folder with the given id from its parent slice.
func removeFolder(folders []*Folder, id string) ([]*Folder, bool) {
	for i, f := range folders {
		if f.ID == id {
			return append(folders[:i:i], folders[i+1:]...), true
		}
		if children, ok := removeFolder(f.Children, id); ok {
			f.Children = children
			return folders, true
		}
	}
	return folders, false
}

func collectFolderIDs(f *Folder, into map[string]bool) {
	into[f.ID] = true
	for _, c := range f.Children {
		collectFolderIDs(c, into)
	}
}

// AddFolder creates a folder under parentID, or a new root ámbito when
// parentID is empty.
func (w *Workspace) AddFolder(id, name, parentID string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}
	folder := &Folder{ID: id, Name: name, Children: []*Folder{}}
	if parentID == "" {
		w.Folders = append(w.Folders, folder)
		return folder, nil
	}
	parent := FindFolder(w.Folders, parentID)
	if parent == nil {
		return nil, fmt.Errorf("parent folder %s: %w", parentID, ErrNotFound)
	}
	parent.Children = append(parent.Children, folder)
	return folder, nil
}

// RenameFolder renames a folder and refreshes the cached destination path of
// every document filed in it or below it.
func (w *Workspace) RenameFolder(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("folder name is required")
	}
	folder := FindFolder(w.Folders, id)
	if folder == nil {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	folder.Name = name

	affected := make(map[string]bool)
	collectFolderIDs(folder, affected)
	refresh := func(ref *FolderRef) {
		if ref == nil || !affected[ref.ID] {
			return
		}
		if p, ok := FolderPath(w.Folders, ref.ID); ok {
			ref.Path = p
		}
	}
	for _, d := range w.Documents {
		refresh(d.DestinationFolder)
	}
	for _, d := range w.OutgoingDocuments {
		refresh(d.DestinationFolder)
	}
	return nil
}

// DeleteFolder removes a leaf folder. Records filed in it keep their cached path.
func (w *Workspace) DeleteFolder(id string) error {
	folder := FindFolder(w.Folders, id)
	if folder == nil {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	if len(folder.Children) > 0 {
		return fmt.Errorf("folder %q has %d subfolders: %w", folder.Name, len(folder.Children), ErrFolderNotEmpty)
	}
	w.Folders, _ = removeFolder(w.Folders, id)
	return nil
}

// folderRef resolves a folder id into a FolderRef. An empty id means unfiled.
func (w *Workspace) folderRef(id string) (*FolderRef, error) {
	if id == "" {
		return nil, nil
	}
	p, ok := FolderPath(w.Folders, id)
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	return &FolderRef{ID: id, Path: p}, nil
}
