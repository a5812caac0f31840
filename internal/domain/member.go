package domain

// Session is one live connection inside a room. MemberId identifies the
// connection; UserId survives reconnects and is what the ban list keys on.
type Session struct {
	MemberId string  `json:"member_id"`
	Nickname string  `json:"nickname"`
	UserId   *string `json:"user_id"`
	LastSeen float64 `json:"last_seen"`
}

func (r *Room) Member(memberId string) *Session {
	for i := range r.Members {
		if r.Members[i].MemberId == memberId {
			return &r.Members[i]
		}
	}

	return nil
}

func (r *Room) MemberByUserId(userId string) *Session {
	for i := range r.Members {
		if r.Members[i].UserId != nil && *r.Members[i].UserId == userId {
			return &r.Members[i]
		}
	}

	return nil
}

func (r Room) IsAdmin(memberId string) bool {
	return r.AdminId != nil && *r.AdminId == memberId
}

// AddMember admits a session. A session carrying a known user id replaces the
// previous connection of that user (reconnect), keeping its place in the member
// list and its admin role. Otherwise the session is appended, and promoted to
// admin if the room has none.
func (r *Room) AddMember(session Session) {
	if session.UserId != nil {
		for i := range r.Members {
			if r.Members[i].UserId != nil && *r.Members[i].UserId == *session.UserId {
				oldMemberId := r.Members[i].MemberId
				r.Members[i].MemberId = session.MemberId
				r.Members[i].Nickname = session.Nickname
				r.Members[i].LastSeen = session.LastSeen

				if r.IsAdmin(oldMemberId) {
					r.AdminId = &session.MemberId
				}

				return
			}
		}
	}

	if r.Member(session.MemberId) != nil {
		return
	}

	r.Members = append(r.Members, session)
	if r.AdminId == nil {
		r.AdminId = &session.MemberId
	}
}

// RemoveMember drops a session. If it held admin, the earliest remaining member
// is promoted; an emptied room has no admin.
func (r *Room) RemoveMember(memberId string) bool {
	idx := -1
	for i := range r.Members {
		if r.Members[i].MemberId == memberId {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	r.Members = append(r.Members[:idx], r.Members[idx+1:]...)

	if r.IsAdmin(memberId) {
		if len(r.Members) > 0 {
			r.AdminId = &r.Members[0].MemberId
		} else {
			r.AdminId = nil
		}
	}

	return true
}

func (r *Room) Ban(userId string) {
	r.BannedUserIds = append(r.BannedUserIds, userId)
}

func (r Room) IsBanned(userId string) bool {
	for _, id := range r.BannedUserIds {
		if id == userId {
			return true
		}
	}

	return false
}

// Touch refreshes a member's liveness clock.
func (r *Room) Touch(memberId string, now float64) bool {
	member := r.Member(memberId)
	if member == nil {
		return false
	}

	member.LastSeen = now

	return true
}

// EvictZombies removes every non-admin session whose last liveness reply is
// older than threshold seconds. The admin is never evicted, so no failover is
// needed here.
func (r *Room) EvictZombies(now float64, threshold float64) []Session {
	var evicted []Session
	alive := r.Members[:0]
	for _, member := range r.Members {
		if now-member.LastSeen > threshold && !r.IsAdmin(member.MemberId) {
			evicted = append(evicted, member)
		} else {
			alive = append(alive, member)
		}
	}
	r.Members = alive

	return evicted
}
