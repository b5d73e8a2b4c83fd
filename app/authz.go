package app

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/legaldesk/legaldesk/internal/daemon"
	"github.com/legaldesk/legaldesk/internal/db/models"
	"github.com/legaldesk/legaldesk/internal/rbac"
)

var (
	principalID   uint64
	principalType string
	capability    string
	instance      string

	roleName        string
	roleLevel       int
	roleDescription string
	expiresAt       string
	scopes          []string

	authzCmd = &cobra.Command{
		Use:   "authz",
		Short: "Query and maintain the authorization engine",
	}

	authzCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Decide whether a principal holds a capability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				c, err := s.Engine.Vocabulary().Parse(capability)
				if err != nil {
					return err //nolint:wrapcheck
				}

				var opts []rbac.CheckOption
				if instance != "" {
					opts = append(opts, rbac.WithInstance(instance))
				}

				d, err := s.Engine.Authorize(cmd.Context(), principal(), c, opts...)
				if err != nil {
					return err //nolint:wrapcheck
				}

				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}

	authzPermissionsCmd = &cobra.Command{
		Use:   "permissions",
		Short: "List the capabilities a principal holds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				caps, err := s.Engine.ListPermissions(cmd.Context(), principal())
				if err != nil {
					return err //nolint:wrapcheck
				}

				for _, c := range caps {
					fmt.Fprintln(cmd.OutOrStdout(), c.String())
				}

				return nil
			})
		},
	}

	authzSweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired role assignments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				n, err := s.Engine.SweepExpired(cmd.Context(), time.Now())
				if err != nil {
					return err //nolint:wrapcheck
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired assignments\n", n)

				return nil
			})
		},
	}

	authzAssignCmd = &cobra.Command{
		Use:   "assign",
		Short: "Assign a role to a principal, replacing scopes and expiry of an existing assignment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := assignOptions()
			if err != nil {
				return err
			}

			return withServices(func(s *daemon.Services) error {
				a, err := s.Engine.Assign(cmd.Context(), principal(), roleName, opts)
				if err != nil {
					return err //nolint:wrapcheck
				}

				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}

	authzUnassignCmd = &cobra.Command{
		Use:   "unassign",
		Short: "Remove a role from a principal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				return s.Engine.Unassign(cmd.Context(), principal(), roleName) //nolint:wrapcheck
			})
		},
	}

	authzGrantCmd = &cobra.Command{
		Use:   "grant",
		Short: "Grant a capability to a role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				c, err := s.Engine.Vocabulary().Parse(capability)
				if err != nil {
					return err //nolint:wrapcheck
				}

				return s.Engine.Grant(cmd.Context(), roleName, c) //nolint:wrapcheck
			})
		},
	}

	authzRevokeCmd = &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a capability from a role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				c, err := s.Engine.Vocabulary().Parse(capability)
				if err != nil {
					return err //nolint:wrapcheck
				}

				return s.Engine.Revoke(cmd.Context(), roleName, c) //nolint:wrapcheck
			})
		},
	}

	authzRoleCmd = &cobra.Command{
		Use:   "role",
		Short: "Create a role or update its level and description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				r, err := s.Engine.EnsureRole(cmd.Context(), roleName, roleLevel, roleDescription)
				if err != nil {
					return err //nolint:wrapcheck
				}

				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}

	authzRolesCmd = &cobra.Command{
		Use:   "roles",
		Short: "List roles, most privileged first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(func(s *daemon.Services) error {
				roles, err := s.Engine.Roles(cmd.Context())
				if err != nil {
					return err //nolint:wrapcheck
				}

				for _, r := range roles {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", r.Name, r.Level, r.Description)
				}

				return nil
			})
		},
	}
)

// assignOptions turns --scope and --expires-at into assignment options.
func assignOptions() (rbac.AssignOptions, error) {
	var opts rbac.AssignOptions

	if expiresAt != "" {
		t, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil {
			return opts, errors.Wrap(err, "--expires-at must be RFC 3339")
		}

		opts.ExpiresAt = &t
	}

	if len(scopes) > 0 {
		opts.Context = &rbac.AssignmentContext{}

		for _, raw := range scopes {
			sc, err := rbac.ParseScope(raw)
			if err != nil {
				return opts, err //nolint:wrapcheck
			}

			opts.Context.Scopes = append(opts.Context.Scopes, sc)
		}
	}

	return opts, nil
}

func principal() rbac.Principal {
	return rbac.Principal{ID: principalID, Type: models.PrincipalType(principalType)}
}

func init() { //nolint: gochecknoinits
	for _, c := range []*cobra.Command{authzCheckCmd, authzPermissionsCmd, authzAssignCmd, authzUnassignCmd} {
		c.Flags().Uint64Var(&principalID, "principal-id", 0, "principal id")
		c.Flags().StringVar(&principalType, "principal-type", "", "principal type: user or lawyer")
		_ = c.MarkFlagRequired("principal-id")
		_ = c.MarkFlagRequired("principal-type")
	}

	authzCheckCmd.Flags().StringVar(&capability, "capability", "", "capability in resource.action form")
	authzCheckCmd.Flags().StringVar(&instance, "instance", "", "resource instance id")
	_ = authzCheckCmd.MarkFlagRequired("capability")

	for _, c := range []*cobra.Command{authzAssignCmd, authzUnassignCmd, authzGrantCmd, authzRevokeCmd, authzRoleCmd} {
		c.Flags().StringVar(&roleName, "role", "", "role name")
		_ = c.MarkFlagRequired("role")
	}

	for _, c := range []*cobra.Command{authzGrantCmd, authzRevokeCmd} {
		c.Flags().StringVar(&capability, "capability", "", "capability in resource.action form")
		_ = c.MarkFlagRequired("capability")
	}

	authzAssignCmd.Flags().StringVar(&expiresAt, "expires-at", "", "RFC 3339 instant after which the assignment is inert")
	authzAssignCmd.Flags().StringArrayVar(&scopes, "scope", nil, "restrict a resource to instances, as resource=id[,id]; repeatable")

	authzRoleCmd.Flags().IntVar(&roleLevel, "level", 0, "display order, higher is more privileged")
	authzRoleCmd.Flags().StringVar(&roleDescription, "description", "", "role description")

	authzCmd.AddCommand(authzCheckCmd, authzPermissionsCmd, authzSweepCmd,
		authzAssignCmd, authzUnassignCmd, authzGrantCmd, authzRevokeCmd, authzRoleCmd, authzRolesCmd)
	rootCmd.AddCommand(authzCmd)
}
