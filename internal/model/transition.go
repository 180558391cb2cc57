package model

import "fmt"

type TaskAction string

const (
	TaskActionStart  TaskAction = "start"
	TaskActionPause  TaskAction = "pause"
	TaskActionFinish TaskAction = "finish"
)

type Transition struct {
	Action TaskAction
	From   TaskStatus
	To     TaskStatus
}

// Transitions is the set of status changes surfaces offer to users. The
// checklist service accepts any status; this policy is applied by callers.
var Transitions = []Transition{
	{Action: TaskActionStart, From: TaskStatusPending, To: TaskStatusActive},
	{Action: TaskActionPause, From: TaskStatusActive, To: TaskStatusPending},
	{Action: TaskActionFinish, From: TaskStatusActive, To: TaskStatusDone},
}

func ActionsFor(status TaskStatus) []Transition {
	var res []Transition
	for _, tr := range Transitions {
		if tr.From == status {
			res = append(res, tr)
		}
	}
	return res
}

func CanTransition(from, to TaskStatus) bool {
	for _, tr := range Transitions {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}

// ResolveAction returns the transition that action performs from status.
func ResolveAction(status TaskStatus, action TaskAction) (Transition, error) {
	for _, tr := range ActionsFor(status) {
		if tr.Action == action {
			return tr, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: cannot %s a %s task", ErrTransitionNotAllowed, action, status)
}

func ParseTaskAction(s string) (TaskAction, error) {
	action := TaskAction(s)
	for _, tr := range Transitions {
		if tr.Action == action {
			return action, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}
