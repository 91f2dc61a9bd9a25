package panel

// The settings projection turns the panel state into a generic tree an
// external editor can display: labeled collapsible nodes with boolean
// fields. Edits come back as (path, value) pairs handled by
// Panel.ApplySetting.

// SettingsField is one editable boolean in the settings tree.
type SettingsField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value bool   `json:"value"`
}

// SettingsNode is a labeled, collapsible group of fields and child nodes.
// Visible mirrors the source's enabled flag for topic nodes and doubles as
// the toggle the editor renders on the node itself.
type SettingsNode struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Toggle   bool            `json:"toggle"`
	Visible  bool            `json:"visible"`
	Fields   []SettingsField `json:"fields,omitempty"`
	Children []SettingsNode  `json:"children,omitempty"`
}

// TopicInfo is one entry of the host's topic catalog.
type TopicInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schemaName"`
}

// BuildSettings projects the panel state onto a settings tree for the
// given candidate sources. Pure and total: it never fails, whatever shape
// the state is in; unknown sources get defensive defaults.
func BuildSettings(s State, candidates []TopicInfo) SettingsNode {
	root := SettingsNode{Key: "root", Label: "Orientation"}

	topics := SettingsNode{Key: "topics", Label: "Topics"}
	for _, t := range candidates {
		cfg, ok := s.Sources[t.Name]
		if !ok {
			cfg = SourceConfig{ShowRoll: true, ShowPitch: true, ShowYaw: true}
		}
		node := SettingsNode{
			Key:     t.Name,
			Label:   t.Name,
			Toggle:  true,
			Visible: cfg.Enabled,
		}
		if cfg.Enabled {
			node.Fields = []SettingsField{
				{Key: "showRoll", Label: "Show roll", Value: cfg.ShowRoll},
				{Key: "showPitch", Label: "Show pitch", Value: cfg.ShowPitch},
				{Key: "showYaw", Label: "Show yaw", Value: cfg.ShowYaw},
			}
		}
		topics.Children = append(topics.Children, node)
	}
	root.Children = append(root.Children, topics)

	root.Children = append(root.Children, SettingsNode{
		Key:     "display",
		Label:   "Display",
		Visible: true,
		Fields: []SettingsField{
			{Key: "rollEnabled", Label: "Roll dial", Value: s.Display.RollEnabled},
			{Key: "pitchEnabled", Label: "Pitch dial", Value: s.Display.PitchEnabled},
			{Key: "yawEnabled", Label: "Yaw compass", Value: s.Display.YawEnabled},
		},
	})

	return root
}

// axisForSettingKey maps editor field keys back to axes. The second result
// is false for keys that do not name an axis flag.
func axisForSettingKey(key string) (Axis, bool) {
	switch key {
	case "showRoll", "rollEnabled":
		return AxisRoll, true
	case "showPitch", "pitchEnabled":
		return AxisPitch, true
	case "showYaw", "yawEnabled":
		return AxisYaw, true
	default:
		return 0, false
	}
}
