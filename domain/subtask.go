package domain

import "time"

// SubTask exists only under a task whose done policy is SUBTASKS. Subtasks
// form their own tree below the task, mirroring the goal tree's move and
// cycle rules one level down.
type SubTask struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"task_id"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	Title      string    `json:"title"`
	ChildOrder []int64   `json:"child_order"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubTaskCreate carries the createSubTask request fields. A nil ParentID
// places the subtask directly under the task.
type SubTaskCreate struct {
	TaskID   int64  `json:"task_id"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Title    string `json:"title"`
}

// SubTaskUpdate carries the optional updateSubTask fields.
type SubTaskUpdate struct {
	ID    int64   `json:"id"`
	Title *string `json:"title,omitempty"`
}

// CreateSubTask adds a subtask to a SUBTASKS-policy task.
func (p *Plan) CreateSubTask(req SubTaskCreate, now time.Time) (*SubTask, error) {
	if req.Title == "" {
		return nil, Invalid("subtask title must not be empty")
	}
	t, err := p.taskByID(req.TaskID, false)
	if err != nil {
		return nil, err
	}
	if t.DonePolicy.Policy == nil || t.DonePolicy.Policy.Kind() != DoneBySubTasks {
		return nil, Invalid("task %d does not use the SUBTASKS done policy", t.ID)
	}

	var parent *SubTask
	if req.ParentID != nil {
		parent, err = p.subTaskByID(*req.ParentID, false)
		if err != nil {
			return nil, err
		}
		if parent.TaskID != t.ID {
			return nil, Invalid("subtask %d belongs to task %d, not task %d", parent.ID, parent.TaskID, t.ID)
		}
	}

	s := &SubTask{
		ID:        p.NextID(),
		TaskID:    t.ID,
		Title:     req.Title,
		CreatedAt: now,
	}
	if parent != nil {
		s.ParentID = &parent.ID
		parent.ChildOrder = append(parent.ChildOrder, s.ID)
	} else {
		t.SubTaskOrder = append(t.SubTaskOrder, s.ID)
	}
	p.addSubTask(s)
	return s, nil
}

// UpdateSubTask applies a partial subtask update.
func (p *Plan) UpdateSubTask(upd SubTaskUpdate) (*SubTask, error) {
	s, err := p.subTaskByID(upd.ID, false)
	if err != nil {
		return nil, err
	}
	if upd.Title == nil {
		return nil, Invalid("subtask update carries no fields")
	}
	if *upd.Title == "" {
		return nil, Invalid("subtask title must not be empty")
	}
	s.Title = *upd.Title
	return s, nil
}

// ArchiveSubTask flags the subtask archived and drops it from its parent's
// order array. The id also leaves the live set the SUBTASKS completeness
// check runs against.
func (p *Plan) ArchiveSubTask(id int64) (*SubTask, error) {
	s, ok := p.subTaskIndex[id]
	if !ok {
		return nil, ErrSubTaskNotFound
	}
	if s.Archived {
		return nil, Invalid("subtask %d is already archived", id)
	}
	s.Archived = true
	if s.ParentID != nil {
		if parent, ok := p.subTaskIndex[*s.ParentID]; ok {
			parent.ChildOrder, _ = removeID(parent.ChildOrder, s.ID)
		}
	} else if t, ok := p.taskIndex[s.TaskID]; ok {
		t.SubTaskOrder, _ = removeID(t.SubTaskOrder, s.ID)
	}
	return s, nil
}
