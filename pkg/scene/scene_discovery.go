package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `yaml:"id"`          // Unique identifier
	Name        string `yaml:"name"`        // Scene name
	DisplayName string `yaml:"displayName"` // Display name
	Description string `yaml:"description"` // Optional description
	Group       string `yaml:"group"`       // Grouping category
	Type        string `yaml:"type"`        // "builtin" or "yaml"
	FilePath    string `yaml:"filePath"`    // Path to the scene file (yaml type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string
	Scenes []SceneInfo
}

// DefaultScenesDirs are searched in order when no scenes directory is given.
var DefaultScenesDirs = []string{"scenes", "../scenes"}

// ListYAMLScenes scans dir for *.yaml and *.yml scene files. An empty dir
// searches DefaultScenesDirs; a missing directory yields no scenes.
func ListYAMLScenes(dir string) ([]SceneInfo, error) {
	if dir == "" {
		for _, path := range DefaultScenesDirs {
			if _, err := os.Stat(path); err == nil {
				dir = path
				break
			}
		}
		if dir == "" {
			return []SceneInfo{}, nil
		}
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		info, err := ParseYAMLMetadata(filePath)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseYAMLMetadata reads the name, description and group of a scene file
// without validating the rest of it.
func ParseYAMLMetadata(filePath string) (SceneInfo, error) {
	base := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(base, filepath.Ext(base))

	info := SceneInfo{
		ID:       "yaml:" + nameWithoutExt,
		Name:     nameWithoutExt,
		Group:    "Scene Files",
		Type:     "yaml",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to read scene metadata: %w", err)
	}

	var header struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Group       string `yaml:"group"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return info, fmt.Errorf("%s: %w", filePath, err)
	}

	if header.Name != "" {
		info.Name = header.Name
	}
	if header.Group != "" {
		info.Group = header.Group
	}
	info.Description = header.Description
	info.DisplayName = titleCase(info.Name)
	return info, nil
}

// ListAllScenes returns the built-in scenes and the scene files in dir,
// grouped by category with groups in alphabetical order.
func ListAllScenes(dir string) ([]SceneGroup, error) {
	files, err := ListYAMLScenes(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scene files: %w", err)
	}

	groupMap := make(map[string][]SceneInfo)
	for _, s := range append(Builtins(), files...) {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	names := make([]string, 0, len(groupMap))
	for name := range groupMap {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]SceneGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}
	return groups, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
