package agent

import "github.com/boardroomhq/boardroom/capability"

// BuiltinRoles returns the default executive role definitions keyed by name.
// Builtin definitions take precedence over a custom role of the same name.
func BuiltinRoles() map[string]Config {
	return map[string]Config{
		"CEO": {
			Name:        "CEO",
			Role:        "Chief Executive Officer",
			Description: "Strategic planning and overall business direction",
			Icon:        "👔",
			Color:       "#667eea",
			Tools:       []capability.Kind{capability.KindMessaging, capability.KindDocuments},
		},
		"CFO": {
			Name:        "CFO",
			Role:        "Chief Financial Officer",
			Description: "Financial planning, budgeting, and fundraising",
			Icon:        "💰",
			Color:       "#f093fb",
			Tools:       []capability.Kind{capability.KindMessaging, capability.KindDocuments},
		},
		"CTO": {
			Name:        "CTO",
			Role:        "Chief Technology Officer",
			Description: "Technical strategy and product development",
			Icon:        "⚡",
			Color:       "#4facfe",
			Tools:       []capability.Kind{capability.KindMessaging, capability.KindDocuments},
		},
		"CMO": {
			Name:        "CMO",
			Role:        "Chief Marketing Officer",
			Description: "Marketing strategy and customer acquisition",
			Icon:        "📈",
			Color:       "#43e97b",
			Tools:       []capability.Kind{capability.KindMessaging, capability.KindDocuments, capability.KindSocial},
		},
	}
}

// CustomRole describes a user-defined role. Custom agents receive the
// default messaging and documents tools.
type CustomRole struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// ResolveRoles maps selected role names onto agent configs. Builtin
// definitions win over same-named custom ones; unknown names are skipped.
func ResolveRoles(selected []string, custom map[string]CustomRole) []Config {
	builtin := BuiltinRoles()
	var configs []Config
	for _, name := range selected {
		if cfg, ok := builtin[name]; ok {
			configs = append(configs, cfg)
			continue
		}
		if c, ok := custom[name]; ok {
			icon := c.Icon
			if icon == "" {
				icon = "🤖"
			}
			color := c.Color
			if color == "" {
				color = "#000000"
			}
			configs = append(configs, Config{
				Name:        name,
				Role:        name,
				Description: c.Description,
				Icon:        icon,
				Color:       color,
				IsCustom:    true,
				Tools:       []capability.Kind{capability.KindMessaging, capability.KindDocuments},
			})
		}
	}
	return configs
}
