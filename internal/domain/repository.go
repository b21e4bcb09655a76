package domain

// Repository represents a repository as listed by the upstream source
type Repository struct {
	Name       string
	OwnerLogin string
	Fork       bool
}

// FullName returns the owner/name identifier of the repository
func (r *Repository) FullName() string {
	return r.OwnerLogin + "/" + r.Name
}

// Branch represents a branch as listed by the upstream source
type Branch struct {
	Name      string
	CommitSHA string
}

// RepoDetails is a non-fork repository together with its branches
type RepoDetails struct {
	Name     string          `json:"name"`
	Owner    string          `json:"owner"`
	Branches []BranchDetails `json:"branches"`
}

// BranchDetails is a branch reduced to its name and latest commit hash
type BranchDetails struct {
	Name          string `json:"name"`
	LastCommitSHA string `json:"lastCommitSha"`
}

// NewBranchDetails flattens an upstream branch
func NewBranchDetails(b *Branch) BranchDetails {
	return BranchDetails{
		Name:          b.Name,
		LastCommitSHA: b.CommitSHA,
	}
}

// NewRepoDetails combines a repository with its fetched branches.
// A nil branch list is stored as empty so it encodes as [].
func NewRepoDetails(repo *Repository, branches []BranchDetails) RepoDetails {
	if branches == nil {
		branches = []BranchDetails{}
	}
	return RepoDetails{
		Name:     repo.Name,
		Owner:    repo.OwnerLogin,
		Branches: branches,
	}
}

// FilterForks returns the repositories that are not forks, in their original order
func FilterForks(repos []*Repository) []*Repository {
	filtered := make([]*Repository, 0, len(repos))
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		filtered = append(filtered, repo)
	}
	return filtered
}
