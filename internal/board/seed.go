package board

import (
	"fmt"
	"strings"

	"github.com/p-blackswan/taskflow/internal/config"
	"github.com/p-blackswan/taskflow/internal/task"
)

// FromSeed converts the YAML board seed into project metadata and starter
// tasks.
func FromSeed(seed *config.BoardSeed) (Project, []NewTask, error) {
	if seed == nil {
		seed = config.DefaultBoardSeed()
	}
	p := Project{
		Name:        seed.Name,
		Description: strings.TrimSpace(seed.Description),
		Members:     make([]Member, 0, len(seed.Members)),
	}
	for _, m := range seed.Members {
		p.Members = append(p.Members, Member(m))
	}

	starter := make([]NewTask, 0, len(seed.Tasks))
	for i, st := range seed.Tasks {
		nt := NewTask{
			Title:       st.Title,
			Description: st.Description,
			Tags:        st.Tags,
			StoryPoints: st.StoryPoints,
			Assignee:    st.Assignee,
			Subtasks:    st.Subtasks,
		}
		if st.Status != "" {
			status, err := task.ParseStatus(st.Status)
			if err != nil {
				return Project{}, nil, fmt.Errorf("seed task %d: %w", i, err)
			}
			nt.Status = status
		}
		if st.Priority != "" {
			prio, err := task.ParsePriority(st.Priority)
			if err != nil {
				return Project{}, nil, fmt.Errorf("seed task %d: %w", i, err)
			}
			nt.Priority = prio
		}
		if st.Due != "" {
			due, err := task.ParseDate(st.Due)
			if err != nil {
				return Project{}, nil, fmt.Errorf("seed task %d: %w", i, err)
			}
			nt.DueDate = &due
		}
		starter = append(starter, nt)
	}
	return p, starter, nil
}
