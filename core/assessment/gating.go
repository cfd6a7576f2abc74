package assessment

// Gate denial reasons
const (
	ReasonPreCourseRequired  = "pre-course questionnaire required"
	ReasonPreModuleRequired  = "pre-module questionnaire required"
	ReasonPostCourseRequired = "post-course questionnaire required"
	ReasonPostModuleRequired = "post-module questionnaire required"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// The gate evaluators below are pure: they only check existence of an active
// assignment in a slot against the corresponding completion flag. They never
// re-derive completion from raw submissions, perform I/O, or return errors.
// Flags are monotonic (false -> true only), so a stale read can only be
// overly conservative, never permissive.

// CanStartCourse decides whether a learner may enter a course.
func CanStartCourse(enr EnrollmentGate, ra ResolvedAssignments) Decision {
	if ra.PreCourse != nil && !enr.PreCourseDone {
		return deny(ReasonPreCourseRequired)
	}
	return allow()
}

// CanStartModule decides whether a learner may begin a module: the course's
// pre-course assessment gates first, then the module's own pre-module one.
func CanStartModule(enr EnrollmentGate, prog ProgressGate, ra ResolvedAssignments) Decision {
	if ra.PreCourse != nil && !enr.PreCourseDone {
		return deny(ReasonPreCourseRequired)
	}
	if ra.PreModule != nil && !prog.PreModuleDone {
		return deny(ReasonPreModuleRequired)
	}
	return allow()
}

// CanCompleteModule decides whether a learner may mark a module complete.
func CanCompleteModule(prog ProgressGate, ra ResolvedAssignments) Decision {
	if ra.PostModule != nil && !prog.PostModuleDone {
		return deny(ReasonPostModuleRequired)
	}
	return allow()
}

// CanCompleteCourse decides whether a learner may mark a course complete.
func CanCompleteCourse(enr EnrollmentGate, ra ResolvedAssignments) Decision {
	if ra.PostCourse != nil && !enr.PostCourseDone {
		return deny(ReasonPostCourseRequired)
	}
	return allow()
}
