package query

// Update is a partial change to a State. Nil fields are left untouched.
type Update struct {
	Limit  *int
	Offset *int
	Like   *string
	Sort   *string
}

// SetLimit returns an update changing only the page size.
func SetLimit(limit int) Update {
	return Update{Limit: &limit}
}

// SetOffset returns an update changing only the offset.
func SetOffset(offset int) Update {
	return Update{Offset: &offset}
}

// SetLike returns an update changing only the free-text filter.
func SetLike(like string) Update {
	return Update{Like: &like}
}

// SetSort returns an update changing only the sort column.
func SetSort(sort string) Update {
	return Update{Sort: &sort}
}

// Merge coalesces several updates into one. Later updates win per field.
func Merge(updates ...Update) Update {
	var merged Update
	for _, u := range updates {
		if u.Limit != nil {
			merged.Limit = u.Limit
		}
		if u.Offset != nil {
			merged.Offset = u.Offset
		}
		if u.Like != nil {
			merged.Like = u.Like
		}
		if u.Sort != nil {
			merged.Sort = u.Sort
		}
	}
	return merged
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Limit == nil && u.Offset == nil && u.Like == nil && u.Sort == nil
}

// Apply returns a copy of s with the fields named by the updates changed.
// All updates land in the returned state, in order. A blank sort comes back
// as DefaultSort so the result survives an Encode/ParseRawQuery round trip.
func (s State) Apply(updates ...Update) State {
	u := Merge(updates...)
	if u.Empty() {
		return s.normalized()
	}
	if u.Limit != nil {
		s.Limit = *u.Limit
	}
	if u.Offset != nil {
		s.Offset = *u.Offset
	}
	if u.Like != nil {
		s.Like = *u.Like
	}
	if u.Sort != nil {
		s.Sort = *u.Sort
	}
	return s.normalized()
}

func (s State) normalized() State {
	if !s.Sorted() {
		s.Sort = DefaultSort
	}
	return s
}
