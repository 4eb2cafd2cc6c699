package domain

import "github.com/google/uuid"

// Access rules. Every function here is a pure predicate; callers turn a
// false result into an access-denied error.

// HasProjectAccess reports whether userID may read project: the owner or any member.
func HasProjectAccess(project *Project, userID uuid.UUID) bool {
	if project == nil || userID == uuid.Nil {
		return false
	}
	return project.Owner.ID == userID || project.IsMember(userID)
}

// CanModifyProject reports whether userID may update or delete project.
// Only the owner may; members are read-only.
func CanModifyProject(project *Project, userID uuid.UUID) bool {
	if project == nil || userID == uuid.Nil {
		return false
	}
	return project.Owner.ID == userID
}

// CanCreateTask reports whether userID may add tasks to project.
// This is stricter than HasProjectAccess: members cannot create tasks.
func CanCreateTask(project *Project, userID uuid.UUID) bool {
	return CanModifyProject(project, userID)
}

// HasTaskAccess reports whether userID may read task: its creator, its
// assignee or the owner of its project.
func HasTaskAccess(task *Task, userID uuid.UUID) bool {
	if task == nil || userID == uuid.Nil {
		return false
	}
	return task.Creator.ID == userID ||
		(task.Assignee != nil && task.Assignee.ID == userID) ||
		task.Project.OwnerID == userID
}

// CanModifyTask reports whether userID may fully update or delete task:
// its creator or the owner of its project. An assignee alone may not.
func CanModifyTask(task *Task, userID uuid.UUID) bool {
	if task == nil || userID == uuid.Nil {
		return false
	}
	return task.Creator.ID == userID || task.Project.OwnerID == userID
}

// CanChangeTaskStatus reports whether userID may patch only the status of task.
// Anyone with read access, assignees included, may.
func CanChangeTaskStatus(task *Task, userID uuid.UUID) bool {
	return HasTaskAccess(task, userID)
}

// CanDeleteAttachment reports whether userID may remove attachment from task:
// the task creator, the task assignee or the uploader.
func CanDeleteAttachment(attachment *TaskAttachment, task *Task, userID uuid.UUID) bool {
	if attachment == nil || task == nil || userID == uuid.Nil {
		return false
	}
	return attachment.UploadedBy.ID == userID ||
		task.Creator.ID == userID ||
		(task.Assignee != nil && task.Assignee.ID == userID)
}
