// Package mocks holds gomock doubles for the port interfaces.
package mocks

//go:generate mockgen -source=../port/agent/agent.go -destination=agent_repository.go -package=mocks -mock_names=Repository=MockAgentRepository
//go:generate mockgen -source=../port/agent/roster.go -destination=roster_reader.go -package=mocks
//go:generate mockgen -source=../port/distribution/distribution.go -destination=distribution_repository.go -package=mocks -mock_names=Repository=MockDistributionRepository
//go:generate mockgen -source=../port/user/user.go -destination=user_repository.go -package=mocks -mock_names=Repository=MockUserRepository
//go:generate mockgen -source=../port/eventbus/eventbus.go -destination=eventbus.go -package=mocks
//go:generate mockgen -source=../port/idempotency/idempotency.go -destination=idempotency_store.go -package=mocks -mock_names=Store=MockIdempotencyStore
//go:generate mockgen -source=../port/security/security.go -destination=security.go -package=mocks
