package project

// TestProject is the only workspace member the merge path supports.
const TestProject = "test"

// SupportedWorkspace reports whether the manifest's workspace, if any, is one
// this tool can handle: no workspace, an empty one, or exactly the test
// project.
func SupportedWorkspace(m *Manifest) bool {
	projects := m.WorkspaceProjects()
	switch len(projects) {
	case 0:
		return true
	case 1:
		return projects[0] == TestProject
	default:
		return false
	}
}
