package inventory

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/pkg/errors"
)

// AutoScalingGroup lists the private DNS names of the in-service
// instances of an AWS AutoScaling Group, sorted by name.
type AutoScalingGroup struct {
	Name        string
	AutoScaling autoscalingiface.AutoScalingAPI
	EC2         ec2iface.EC2API
}

// Hosts implements Source.
func (a AutoScalingGroup) Hosts(ctx context.Context) ([]string, error) {
	out, err := a.AutoScaling.DescribeAutoScalingGroupsWithContext(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: aws.StringSlice([]string{a.Name}),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error describing autoscaling group %s", a.Name)
	}
	if len(out.AutoScalingGroups) == 0 {
		return nil, errors.Errorf("autoscaling group %s not found", a.Name)
	}

	var ids []string
	for _, i := range out.AutoScalingGroups[0].Instances {
		if aws.StringValue(i.LifecycleState) == autoscaling.LifecycleStateInService {
			ids = append(ids, aws.StringValue(i.InstanceId))
		}
	}
	if len(ids) == 0 {
		return nil, errors.Wrapf(ErrNoHosts, "in autoscaling group %s", a.Name)
	}

	var hosts []string
	err = a.EC2.DescribeInstancesPagesWithContext(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: aws.StringSlice(ids),
	}, func(page *ec2.DescribeInstancesOutput, _ bool) bool {
		for _, r := range page.Reservations {
			for _, i := range r.Instances {
				if name := aws.StringValue(i.PrivateDnsName); name != "" {
					hosts = append(hosts, name)
				}
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "error describing instances")
	}
	sort.Strings(hosts)
	return clean(hosts)
}
