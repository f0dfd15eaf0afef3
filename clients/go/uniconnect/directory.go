package uniconnect

import "context"

// Directory holds the three disjoint channel lists visible to one user.
// Each list keeps the server's by-name ordering.
type Directory struct {
	// Campus channels scoped to the user's organization. Empty when the user
	// has no organization affiliation.
	Campus []Channel

	// Subject channels owned by the user's organization.
	Subjects []Channel

	// Channels visible regardless of organization.
	Global []Channel

	// OrganizationID is the user's resolved affiliation, nil if none.
	OrganizationID *int64

	// OrganizationName is the display name of the affiliation. Empty when the
	// lookup failed or the user has no organization; rendering treats empty as
	// "unresolved", never as an error.
	OrganizationName string
}

// LoadDirectory resolves the user's organization and splits the full channel
// listing into campus, subject, and global lists. A listing failure is logged
// and yields empty lists along with the error; the organization-name lookup is
// best-effort and never fails the load.
func (c *Client) LoadDirectory(ctx context.Context, userID string) (*Directory, error) {
	dir := &Directory{}

	// Affiliation lookup. A missing profile just means no campus lists.
	if userID != "" {
		profile, err := c.GetProfile(ctx, userID)
		if err != nil {
			c.Logger.Warn().Err(err).Str("user_id", userID).Msg("profile lookup failed")
		} else if profile.OrganizationID != nil {
			dir.OrganizationID = profile.OrganizationID

			org, err := c.GetOrganization(ctx, *profile.OrganizationID)
			if err != nil {
				c.Logger.Warn().Err(err).Msg("organization name lookup failed")
			} else {
				dir.OrganizationName = org.Name
			}
		}
	}

	listing, err := c.ListChannels(ctx)
	if err != nil {
		c.Logger.Error().Err(err).Msg("channel listing failed")
		return dir, err
	}

	orgMatch := func(ch Channel) bool {
		return dir.OrganizationID != nil && ch.OrganizationID != nil &&
			*ch.OrganizationID == *dir.OrganizationID
	}

	// A subject channel owned by the user's organization lands in the subject
	// list; anything scoped global stays visible to every user, whoever owns
	// it. Each channel lands in at most one list.
	for _, ch := range listing.Channels {
		switch {
		case ch.Type == TypeSubject && orgMatch(ch):
			dir.Subjects = append(dir.Subjects, ch)
		case ch.Scope == ScopeCampus && orgMatch(ch):
			dir.Campus = append(dir.Campus, ch)
		case ch.Scope == ScopeGlobal || ch.Type == TypeGlobal:
			dir.Global = append(dir.Global, ch)
		}
	}

	return dir, nil
}

// DefaultSelection picks the initial channel: first campus channel, then
// first subject channel, then first global channel. Returns nil when every
// list is empty; callers render the empty state, not an error.
func (d *Directory) DefaultSelection() *Channel {
	if len(d.Campus) > 0 {
		return &d.Campus[0]
	}
	if len(d.Subjects) > 0 {
		return &d.Subjects[0]
	}
	if len(d.Global) > 0 {
		return &d.Global[0]
	}
	return nil
}
