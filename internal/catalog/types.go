package catalog

// SystemFolder describes a reserved folder created at bootstrap
type SystemFolder struct {
	Code         string `yaml:"code" json:"code"`
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	Icon         string `yaml:"icon" json:"icon"`
	DisplayOrder int    `yaml:"display_order" json:"display_order"`
}

// folderCatalog mirrors config/folders.yaml
type folderCatalog struct {
	Icons         []string       `yaml:"icons"`
	SystemFolders []SystemFolder `yaml:"system_folders"`
}
