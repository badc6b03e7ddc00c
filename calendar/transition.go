package calendar

// transition applies the named operation to the status machine defined in
// SPEC_FULL.md §3. It returns the new status and whether the transition was
// legal. An illegal transition is a silent no-op, not an error: the caller
// gets back (current, false) and must not update the event.
//
//	proposed  -> accepted | rejected | confirmed
//	accepted  -> confirmed | booked | failed
//	confirmed -> booked | failed
//	booked    -> failed | no_show
//	rejected, failed, no_show -> terminal
func transition(current Status, op string) (Status, bool) {
	switch op {
	case "accept":
		if current == StatusProposed {
			return StatusAccepted, true
		}
	case "reject":
		if current == StatusProposed {
			return StatusRejected, true
		}
	case "confirm":
		if current == StatusProposed || current == StatusAccepted {
			return StatusConfirmed, true
		}
	case "mark_booked":
		if !current.terminal() {
			return StatusBooked, true
		}
	case "mark_failed":
		return StatusFailed, true
	case "mark_no_show":
		return StatusNoShow, true
	}
	return current, false
}
